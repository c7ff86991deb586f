package workorder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/opticare/billing/internal/domain/insurance"
	"github.com/opticare/billing/internal/domain/patient"
)

// PatientDirectory is the slice of the patient service the workflow needs.
type PatientDirectory interface {
	FindByMR(ctx context.Context, mrNumber string) (*patient.Patient, error)
	FindByNamePhone(ctx context.Context, name, phone string) (*patient.Patient, error)
	Register(ctx context.Context, p *patient.Patient) error
}

// PolicyDirectory covers policy resolution and the reception billing
// hand-off.
type PolicyDirectory interface {
	PolicyIDByMR(ctx context.Context, mrNumber string) (string, error)
	ApprovedAmount(ctx context.Context, policyID string) (float64, error)
	RecordBilling(ctx context.Context, rec *insurance.BillingRecord) error
}

const resolveTimeout = 10 * time.Second

// Resolver performs the dependent lookups that enrich a draft: MR number to
// patient, and MR number to policy id to approved amount. Lookups run off
// the request path and never block step transitions; results are applied
// only if the session's generation still matches the one captured at
// trigger time.
type Resolver struct {
	patients PatientDirectory
	policies PolicyDirectory
	log      zerolog.Logger

	// run schedules the async lookup. Tests swap in a synchronous runner.
	run func(func())
}

func NewResolver(patients PatientDirectory, policies PolicyDirectory, log zerolog.Logger) *Resolver {
	return &Resolver{
		patients: patients,
		policies: policies,
		log:      log,
		run:      func(f func()) { go f() },
	}
}

// ResolveMR kicks off the enrichment chain for the session's current MR
// number. Idempotent; re-triggered only when the MR number changes. Each
// hop degrades independently to unknown on failure.
func (r *Resolver) ResolveMR(s *Session) {
	snap := s.Snapshot()
	mr := snap.Draft.Identification.MRNumber
	if mr == "" {
		return
	}
	gen := s.Generation()

	r.run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()

		r.resolvePatient(ctx, s, gen, mr)
		if s.Config.ResolvePolicy {
			r.resolvePolicyChain(ctx, s, gen, mr)
		}
	})
}

func (r *Resolver) resolvePatient(ctx context.Context, s *Session, gen uint64, mr string) {
	p, err := r.patients.FindByMR(ctx, mr)
	if errors.Is(err, patient.ErrNotFound) {
		s.NotifyResolved(gen, "No patient found with the provided MR number.")
		return
	}
	if err != nil {
		r.log.Warn().Err(err).Str("mr_number", mr).Msg("patient lookup failed")
		s.NotifyResolved(gen, "Patient lookup failed. Please try again.")
		return
	}
	s.ApplyResolved(gen, func(d *Draft) {
		d.Patient = &ResolvedPatient{
			ID:      p.ID,
			Name:    p.Name,
			Phone:   p.Phone,
			Address: p.Address,
			Age:     p.Age,
			Gender:  p.Gender,
		}
	})
}

func (r *Resolver) resolvePolicyChain(ctx context.Context, s *Session, gen uint64, mr string) {
	policyID, err := r.policies.PolicyIDByMR(ctx, mr)
	if err != nil {
		if !errors.Is(err, insurance.ErrNotFound) {
			r.log.Warn().Err(err).Str("mr_number", mr).Msg("policy lookup failed")
		}
		return
	}
	if !s.ApplyResolved(gen, func(d *Draft) { d.PolicyID = policyID }) {
		return
	}

	approved, err := r.policies.ApprovedAmount(ctx, policyID)
	if err != nil {
		if !errors.Is(err, insurance.ErrNotFound) {
			r.log.Warn().Err(err).Str("policy_id", policyID).Msg("approved amount lookup failed")
		}
		return
	}
	s.ApplyResolved(gen, func(d *Draft) { d.ApprovedAmount = &approved })
}

// ResolveMRFromNamePhone is the claim variant's secondary key: look up the
// MR number registered under the freeform name and phone. Synchronous; the
// caller decides when it is needed.
func (r *Resolver) ResolveMRFromNamePhone(ctx context.Context, name, phone string) (string, error) {
	p, err := r.patients.FindByNamePhone(ctx, name, phone)
	if err != nil {
		return "", err
	}
	if p.MRNumber == nil || *p.MRNumber == "" {
		return "", patient.ErrNotFound
	}
	return *p.MRNumber, nil
}
