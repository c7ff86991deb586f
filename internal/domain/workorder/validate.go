package workorder

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names used in validation errors and focus targets.
const (
	FieldHasMRNumber     = "has_mr_number"
	FieldMRNumber        = "mr_number"
	FieldCustomerName    = "customer_name"
	FieldCustomerPhone   = "customer_phone"
	FieldCustomerAddress = "customer_address"
	FieldCustomerAge     = "customer_age"
	FieldCustomerGender  = "customer_gender"
	FieldDiscount        = "discount"
	FieldPaymentMethod   = "payment_method"
	FieldAdvance         = "advance"
	FieldGSTNumber       = "gst_number"
	FieldEmployee        = "employee"
)

func lineField(kind string, index int) string {
	return fmt.Sprintf("product_%s_%d", kind, index)
}

// parseAmount parses operator money input. Empty or malformed input counts
// as zero, matching how advance and discount feed the computation; the
// malformed case is caught separately by validation where it matters.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

const amountEpsilon = 1e-9

func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < amountEpsilon
}

// DiscountValue is the parsed discount feeding the computation.
func (d *Draft) DiscountValue() float64 { return parseAmount(d.Financial.DiscountInput) }

// AdvanceValue is the parsed advance feeding the balance due.
func (d *Draft) AdvanceValue() float64 { return parseAmount(d.Financial.AdvanceInput) }

// ApprovedValue is the parsed operator-entered approved amount for the
// claim variant.
func (d *Draft) ApprovedValue() float64 { return parseAmount(d.Financial.ApprovedInput) }

// Totals recomputes the financial breakdown from the current lines and
// discount.
func (d *Draft) Totals() Totals { return ComputeTotals(d.Lines, d.DiscountValue()) }

// ValidateStep evaluates one step's rules, returning field errors in a
// fixed priority order. Empty result means the step may be left forward.
func ValidateStep(d *Draft, cfg VariantConfig, step Step) []FieldError {
	switch step {
	case StepIdentification:
		return validateIdentification(d)
	case StepFinancialTerms:
		return validateFinancialTerms(d, cfg)
	case StepAttribution:
		return validateAttribution(d)
	}
	return nil
}

// ValidateAll re-runs every step's rules plus the line-item and advance
// invariants, used at save time regardless of the current step.
func ValidateAll(d *Draft, cfg VariantConfig) []FieldError {
	var errs []FieldError
	errs = append(errs, validateIdentification(d)...)
	errs = append(errs, validateLines(d)...)
	errs = append(errs, validateFinancialTerms(d, cfg)...)
	errs = append(errs, validateAttribution(d)...)
	errs = append(errs, validateAdvanceCeiling(d)...)
	return errs
}

func validateIdentification(d *Draft) []FieldError {
	var errs []FieldError
	id := d.Identification
	switch {
	case id.HasMRNumber == nil:
		errs = append(errs, FieldError{FieldHasMRNumber, "Please indicate if you have an MR Number."})
	case *id.HasMRNumber:
		if strings.TrimSpace(id.MRNumber) == "" {
			errs = append(errs, FieldError{FieldMRNumber, "MR Number is required."})
		}
	default:
		c := id.Customer
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, FieldError{FieldCustomerName, "Name is required."})
		}
		if strings.TrimSpace(c.Phone) == "" {
			errs = append(errs, FieldError{FieldCustomerPhone, "Phone number is required."})
		}
		if strings.TrimSpace(c.Address) == "" {
			errs = append(errs, FieldError{FieldCustomerAddress, "Address is required."})
		}
		age := strings.TrimSpace(c.AgeInput)
		if age == "" {
			errs = append(errs, FieldError{FieldCustomerAge, "Age is required."})
		} else if n, err := strconv.Atoi(age); err != nil {
			errs = append(errs, FieldError{FieldCustomerAge, "Enter a valid age."})
		} else if n < 0 {
			errs = append(errs, FieldError{FieldCustomerAge, "Age cannot be negative."})
		}
		if strings.TrimSpace(c.Gender) == "" {
			errs = append(errs, FieldError{FieldCustomerGender, "Gender is required."})
		}
	}
	return errs
}

func validateLines(d *Draft) []FieldError {
	var errs []FieldError
	for i, line := range d.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			errs = append(errs, FieldError{lineField("id", i), "Product ID is required"})
		}
		if line.Price <= 0 {
			errs = append(errs, FieldError{lineField("price", i), "Price is required"})
		}
		if line.Quantity <= 0 {
			errs = append(errs, FieldError{lineField("quantity", i), "Quantity is required"})
		}
	}
	return errs
}

func validateFinancialTerms(d *Draft, cfg VariantConfig) []FieldError {
	var errs []FieldError
	f := d.Financial
	totals := ComputeTotals(d.Lines, 0)
	subtotal := totals.Subtotal

	discountInput := strings.TrimSpace(f.DiscountInput)
	discount := 0.0
	fullDiscount := false
	if discountInput != "" {
		v, err := strconv.ParseFloat(discountInput, 64)
		if err != nil || v < 0 || v > subtotal+amountEpsilon {
			errs = append(errs, FieldError{FieldDiscount,
				"Enter a valid discount amount that does not exceed the subtotal."})
		} else {
			discount = v
			fullDiscount = amountsEqual(discount, subtotal)
		}
	}

	// A full discount leaves nothing to collect, so any advance other than
	// empty or literal zero is contradictory input.
	advanceInput := strings.TrimSpace(f.AdvanceInput)
	if fullDiscount && advanceInput != "" && advanceInput != "0" {
		errs = append(errs, FieldError{FieldAdvance,
			"Advance cannot be collected when discount equals the total amount."})
	} else if advanceInput != "" {
		if v, err := strconv.ParseFloat(advanceInput, 64); err != nil || v < 0 {
			errs = append(errs, FieldError{FieldAdvance, "Enter a valid advance amount."})
		}
	}

	if strings.TrimSpace(f.PaymentMethod) == "" {
		errs = append(errs, FieldError{FieldPaymentMethod, "Payment method is required."})
	}

	if advanceInput == "" && !fullDiscount {
		errs = append(errs, FieldError{FieldAdvance, "Advance details are required."})
	}

	if cfg.AllowB2B && f.B2B && strings.TrimSpace(f.GSTNumber) == "" {
		errs = append(errs, FieldError{FieldGSTNumber, "GST number is required for B2B orders."})
	}

	return errs
}

func validateAttribution(d *Draft) []FieldError {
	if strings.TrimSpace(d.Attribution.Employee) == "" {
		return []FieldError{{FieldEmployee, "Employee selection is required."}}
	}
	return nil
}

// validateAdvanceCeiling enforces the cross-field invariant that the
// advance may not exceed the grand total plus a one-unit rounding
// tolerance. Checked only at save time.
func validateAdvanceCeiling(d *Draft) []FieldError {
	totals := d.Totals()
	if d.AdvanceValue() > totals.GrandTotal+1 {
		return []FieldError{{FieldAdvance, "Advance amount cannot exceed the total amount."}}
	}
	return nil
}
