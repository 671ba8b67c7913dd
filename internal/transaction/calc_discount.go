package transaction

import "github.com/sentosa-erp/sentosa/internal/shared"

// resolvedDiscount carries the absolute amount computed for one discount
// request, still keyed by item index until items are persisted.
type resolvedDiscount struct {
	Type       DiscountType
	Percentage *float64
	Amount     float64
	ItemIndex  *int
}

// calculateDiscounts resolves discount requests against the item totals and
// the subtotal. Pure: the caller persists the results. TOTAL_FIXED and
// ITEM_FIXED take their amount verbatim; percentage types apply to the
// subtotal or the referenced item's total. The summed discount may not
// exceed the subtotal: it is rejected, not clamped.
func calculateDiscounts(itemTotals []float64, subtotal float64, discounts []DiscountInput) (float64, []resolvedDiscount, error) {
	var total float64
	resolved := make([]resolvedDiscount, 0, len(discounts))

	for i, d := range discounts {
		var amount float64
		switch d.Type {
		case DiscountTotalFixed:
			if d.Amount == nil {
				return 0, nil, shared.Invalidf("discount %d: amount is required for %s", i, d.Type)
			}
			if *d.Amount < 0 {
				return 0, nil, shared.Invalidf("discount %d: amount must not be negative", i)
			}
			amount = *d.Amount

		case DiscountTotalPercentage:
			pct, err := percentageOf(d, i)
			if err != nil {
				return 0, nil, err
			}
			amount = subtotal * pct / 100

		case DiscountItemFixed:
			if err := checkItemIndex(d, i, len(itemTotals)); err != nil {
				return 0, nil, err
			}
			if d.Amount == nil {
				return 0, nil, shared.Invalidf("discount %d: amount is required for %s", i, d.Type)
			}
			if *d.Amount < 0 {
				return 0, nil, shared.Invalidf("discount %d: amount must not be negative", i)
			}
			amount = *d.Amount

		case DiscountItemPercentage:
			if err := checkItemIndex(d, i, len(itemTotals)); err != nil {
				return 0, nil, err
			}
			pct, err := percentageOf(d, i)
			if err != nil {
				return 0, nil, err
			}
			amount = itemTotals[*d.ItemIndex] * pct / 100

		default:
			return 0, nil, shared.Invalidf("discount %d: unknown discount type %q", i, d.Type)
		}

		total += amount
		resolved = append(resolved, resolvedDiscount{
			Type:       d.Type,
			Percentage: d.Percentage,
			Amount:     amount,
			ItemIndex:  d.ItemIndex,
		})
	}

	if total > subtotal {
		return 0, nil, shared.Invalidf("total discount %s exceeds subtotal %s",
			shared.FormatAmount(total), shared.FormatAmount(subtotal))
	}
	return total, resolved, nil
}

func percentageOf(d DiscountInput, i int) (float64, error) {
	if d.Percentage == nil {
		return 0, shared.Invalidf("discount %d: percentage is required for %s", i, d.Type)
	}
	if *d.Percentage < 0 {
		return 0, shared.Invalidf("discount %d: percentage must not be negative", i)
	}
	if *d.Percentage > 100 {
		return 0, shared.Invalidf("discount %d: percentage must not exceed 100", i)
	}
	return *d.Percentage, nil
}

func checkItemIndex(d DiscountInput, i, itemCount int) error {
	if d.ItemIndex == nil {
		return shared.Invalidf("discount %d: item index is required for %s", i, d.Type)
	}
	if *d.ItemIndex < 0 || *d.ItemIndex >= itemCount {
		return shared.Invalidf("discount %d: item index %d out of range", i, *d.ItemIndex)
	}
	return nil
}
