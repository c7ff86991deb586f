package workorder

import "fmt"

// BalanceBasis selects which total the informational insurance balance is
// computed against.
type BalanceBasis int

const (
	// BasisGrandTotal subtracts the approved amount from the
	// tax-exclusive-discount grand total.
	BasisGrandTotal BalanceBasis = iota
	// BasisGross subtracts it from the tax-inclusive gross less discount.
	BasisGross
)

// VariantConfig parameterizes the shared engine for the three workflow
// variants. Variants are configuration, not copies.
type VariantConfig struct {
	Kind Kind

	// AllowB2B enables the B2B flag and its GST number requirement.
	AllowB2B bool

	// ResolvePolicy turns on the MR number to policy id to approved amount
	// resolver chain.
	ResolvePolicy bool

	// ManualApproved lets the operator key in the approved amount instead
	// of resolving it from prior billing.
	ManualApproved bool

	// SecondaryPatientKey resolves the MR number from name plus phone when
	// the operator has no MR number at hand.
	SecondaryPatientKey bool

	// BalanceBasis picks the figure the insurance balance is derived from.
	BalanceBasis BalanceBasis

	// FinalizeBilling makes a successful save write a reception billing
	// record instead of only the order row.
	FinalizeBilling bool
}

var variants = map[Kind]VariantConfig{
	KindWorkOrder: {
		Kind:          KindWorkOrder,
		AllowB2B:      true,
		ResolvePolicy: true,
		BalanceBasis:  BasisGrandTotal,
	},
	KindInsuranceClaim: {
		Kind:                KindInsuranceClaim,
		ManualApproved:      true,
		SecondaryPatientKey: true,
		BalanceBasis:        BasisGross,
		FinalizeBilling:     true,
	},
	KindInsuranceCheckout: {
		Kind:          KindInsuranceCheckout,
		ResolvePolicy: true,
		BalanceBasis:  BasisGrandTotal,
	},
}

// VariantFor returns the configuration for a workflow kind.
func VariantFor(kind Kind) (VariantConfig, error) {
	cfg, ok := variants[kind]
	if !ok {
		return VariantConfig{}, fmt.Errorf("unknown workflow kind %q", kind)
	}
	return cfg, nil
}
