package transaction

import "github.com/sentosa-erp/sentosa/internal/shared"

// calculateTax applies each selected tax rate independently to the same
// post-discount base and sums the results. Taxes never compound. Every
// requested id must resolve to a live rate.
func calculateTax(base float64, taxIDs []int64, rates map[int64]float64) (float64, error) {
	var total float64
	for _, id := range taxIDs {
		rate, ok := rates[id]
		if !ok {
			return 0, shared.NotFoundf("tax %d not found", id)
		}
		total += base * rate / 100
	}
	return total, nil
}
