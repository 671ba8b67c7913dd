package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// StatusCoder is implemented by domain errors that carry their own HTTP
// status. Everything else is treated as an internal error.
type StatusCoder interface {
	HTTPStatus() int
}

// RespondError maps err to an error envelope. Internal errors are logged and
// masked with a generic message so storage details never reach the caller.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		Fail(w, r, sc.HTTPStatus(), err.Error())
		return
	}
	if logger != nil {
		logger.Error("unexpected error", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	Fail(w, r, http.StatusInternalServerError, "internal server error")
}
