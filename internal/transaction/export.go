package transaction

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteListCSV serialises transactions to CSV, one row per transaction.
func WriteListCSV(w io.Writer, details []Detail) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"ID", "Type", "Status", "Customer", "Subtotal", "Total Discount", "Total Tax", "Grand Total", "Created At"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, d := range details {
		if err := writer.Write([]string{
			strconv.FormatInt(d.ID, 10),
			string(d.Type),
			string(d.Status),
			d.CustomerName,
			formatFloat(d.Subtotal),
			formatFloat(d.TotalDiscount),
			formatFloat(d.TotalTax),
			formatFloat(d.GrandTotal),
			d.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
