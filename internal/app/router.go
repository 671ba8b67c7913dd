package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sentosa-erp/sentosa/internal/dashboard"
	"github.com/sentosa-erp/sentosa/internal/inventory"
	"github.com/sentosa-erp/sentosa/internal/masterdata/customers"
	"github.com/sentosa-erp/sentosa/internal/masterdata/products"
	"github.com/sentosa-erp/sentosa/internal/masterdata/taxes"
	"github.com/sentosa-erp/sentosa/internal/masterdata/units"
	"github.com/sentosa-erp/sentosa/internal/masterdata/users"
	"github.com/sentosa-erp/sentosa/internal/observability"
	"github.com/sentosa-erp/sentosa/internal/payment"
	"github.com/sentosa-erp/sentosa/internal/transaction"
	"github.com/sentosa-erp/sentosa/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	TransactionHandler *transaction.Handler
	PaymentHandler     *payment.Handler
	InventoryHandler   *inventory.Handler
	DashboardHandler   *dashboard.Handler
	ProductHandler     *products.Handler
	CustomerHandler    *customers.Handler
	TaxHandler         *taxes.Handler
	UnitHandler        *units.Handler
	UserHandler        *users.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the default stack and the
// /api/v1 surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", params.TransactionHandler.MountRoutes)
		r.Route("/payments", params.PaymentHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		r.Route("/products", params.ProductHandler.MountRoutes)
		r.Route("/customers", params.CustomerHandler.MountRoutes)
		r.Route("/taxes", params.TaxHandler.MountRoutes)
		r.Route("/units", params.UnitHandler.MountRoutes)
		r.Route("/users", params.UserHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
