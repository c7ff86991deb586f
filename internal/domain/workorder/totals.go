package workorder

// Combined GST rate on list prices, split evenly between CGST and SGST.
// Unit prices are tax-inclusive at this rate.
const (
	gstRate  = 0.12
	halfRate = gstRate / 2
)

// Totals is the derived financial breakdown of a draft. GrandTotal follows
// the tax-exclusive-discount path; DiscountedTotalGross subtracts the
// discount from the tax-inclusive gross instead. Both are reported: the
// printed bill shows the gross figure as Total Amount while GrandTotal
// feeds the balance due.
type Totals struct {
	Subtotal             float64 `json:"subtotal"`
	TotalInclusive       float64 `json:"total_inclusive"`
	EffectiveDiscount    float64 `json:"effective_discount"`
	DiscountedBase       float64 `json:"discounted_base"`
	CGST                 float64 `json:"cgst"`
	SGST                 float64 `json:"sgst"`
	GrandTotal           float64 `json:"grand_total"`
	DiscountedTotalGross float64 `json:"discounted_total_gross"`
}

// ComputeTotals derives the full breakdown from the line items and discount.
// Pure; recomputed on every line or discount mutation, never memoized
// across draft resets.
func ComputeTotals(items []LineItem, discount float64) Totals {
	var t Totals
	for _, it := range items {
		qty := float64(it.Quantity)
		t.Subtotal += it.Price / (1 + gstRate) * qty
		t.TotalInclusive += it.Price * qty
	}

	// The discount caps at the tax-exclusive base even when the operator
	// keys in a tax-inclusive figure. Deliberate asymmetry; do not change.
	t.EffectiveDiscount = discount
	if t.EffectiveDiscount > t.Subtotal {
		t.EffectiveDiscount = t.Subtotal
	}

	t.DiscountedBase = (t.Subtotal*(1+gstRate) - t.EffectiveDiscount) / (1 + gstRate)
	if t.DiscountedBase < 0 {
		t.DiscountedBase = 0
	}

	t.CGST = t.DiscountedBase * halfRate
	t.SGST = t.DiscountedBase * halfRate
	t.GrandTotal = t.DiscountedBase + t.CGST + t.SGST
	t.DiscountedTotalGross = t.TotalInclusive - t.EffectiveDiscount
	return t
}

// BalanceDue is the amount still payable after the advance. Validation
// rejects advances above GrandTotal plus a one-unit rounding tolerance
// before this is reached.
func BalanceDue(t Totals, advance float64) float64 {
	due := t.GrandTotal - advance
	if due < 0 {
		return 0
	}
	return due
}

// InsuranceBalance is the informational figure against the externally
// adjudicated approved amount. It may be negative (overpayment) and never
// constrains the balance due.
func InsuranceBalance(t Totals, basis BalanceBasis, approved float64) float64 {
	if basis == BasisGross {
		return t.TotalInclusive - approved
	}
	return t.GrandTotal - approved
}
