package workorder

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opticare/billing/internal/domain/insurance"
	"github.com/opticare/billing/internal/domain/patient"
	"github.com/opticare/billing/internal/platform/db"
	"github.com/opticare/billing/pkg/pagination"
)

// ModificationCompleter closes open modification requests once an edit is
// saved.
type ModificationCompleter interface {
	CompleteForOrder(ctx context.Context, orderID int64, orderType string) (bool, error)
}

// Service drives workflow sessions end to end: session lifecycle, draft
// mutation, the save transaction with its single conflict retry, and the
// print hand-off.
type Service struct {
	store    *Store
	repo     Repository
	alloc    *Allocator
	patients PatientDirectory
	policies PolicyDirectory
	mods     ModificationCompleter
	resolver *Resolver
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(store *Store, repo Repository, patients PatientDirectory,
	policies PolicyDirectory, mods ModificationCompleter, resolver *Resolver,
	log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		repo:     repo,
		alloc:    NewAllocator(repo),
		patients: patients,
		policies: policies,
		mods:     mods,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
}

// StartSession opens a new workflow session. With an edit id the draft is
// hydrated from the committed order before the machine is shown and the id
// is pinned for the whole session.
func (svc *Service) StartSession(ctx context.Context, kind Kind, branch string, editID *int64) (*Session, error) {
	cfg, err := VariantFor(kind)
	if err != nil {
		return nil, &ValidationError{Errors: []FieldError{{"kind", err.Error()}}}
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, &ValidationError{Errors: []FieldError{{"branch", "Branch is required."}}}
	}

	token := uuid.NewString()
	var s *Session
	if editID != nil {
		draft, err := svc.hydrate(ctx, branch, *editID)
		if err != nil {
			return nil, err
		}
		s = NewEditSession(token, cfg, draft)
	} else {
		s = NewSession(token, cfg, branch)
	}
	svc.store.Put(s)
	svc.log.Info().Str("token", token).Str("kind", string(kind)).
		Str("branch", branch).Bool("edit", editID != nil).Msg("workflow session started")
	return s, nil
}

func (svc *Service) hydrate(ctx context.Context, branch string, orderID int64) (*Draft, error) {
	o, err := svc.repo.Get(ctx, branch, orderID)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, &TransientError{Op: "order hydration", Err: err}
	}

	d := NewDraft(branch)
	id := o.OrderID
	d.OrderID = &id
	d.Lines = o.Lines
	d.PolicyID = stringOr(o.PolicyID)
	d.ApprovedAmount = o.ApprovedAmount
	d.CustomerID = o.CustomerID

	if o.MRNumber != nil && *o.MRNumber != "" {
		has := true
		d.Identification.HasMRNumber = &has
		d.Identification.MRNumber = *o.MRNumber
		d.Patient = &ResolvedPatient{
			Name: o.Name, Phone: o.Phone, Address: o.Address,
			Age: o.Age, Gender: o.Gender,
		}
	} else {
		has := false
		d.Identification.HasMRNumber = &has
		d.Identification.Customer = CustomerDetails{
			Name: o.Name, Phone: o.Phone, Address: o.Address,
			AgeInput: strconv.Itoa(o.Age), Gender: o.Gender,
		}
	}

	d.Financial = FinancialTerms{
		PaymentMethod: o.PaymentMethod,
		DiscountInput: formatAmount(o.Discount),
		AdvanceInput:  formatAmount(o.Advance),
		B2B:           o.B2B,
		GSTNumber:     stringOr(o.GSTNumber),
	}
	d.Attribution.Employee = o.Employee
	return d, nil
}

// Session resolves a token to its live session.
func (svc *Service) Session(token string) (*Session, error) {
	s, ok := svc.store.Get(token)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Apply runs one draft mutation and, when the MR number changed to a
// non-empty value, kicks off the enrichment chain.
func (svc *Service) Apply(token string, a Action) (Snapshot, error) {
	s, err := svc.Session(token)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.Apply(a); err != nil {
		return s.Snapshot(), err
	}
	if a.Type == ActionSetMRNumber && strings.TrimSpace(a.Value) != "" {
		svc.resolver.ResolveMR(s)
	}
	return s.Snapshot(), nil
}

// Advance validates the current step and moves forward when clean. The
// snapshot carries any field errors and the focus target.
func (svc *Service) Advance(token string) (Snapshot, error) {
	s, err := svc.Session(token)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := s.Advance(); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Retreat moves back one step.
func (svc *Service) Retreat(token string) (Snapshot, error) {
	s, err := svc.Session(token)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.Retreat(); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Discard drops the session and its draft.
func (svc *Service) Discard(token string) {
	svc.store.Delete(token)
}

// Save validates the whole draft, links or creates the customer record and
// commits. New orders get an allocated id with exactly one automatic
// re-allocation on a uniqueness conflict; a second conflict surfaces. The
// claim variant finalizes into reception billing instead of the order
// table. The busy flag resets on every path.
func (svc *Service) Save(ctx context.Context, token string) (Snapshot, error) {
	s, err := svc.Session(token)
	if err != nil {
		return Snapshot{}, err
	}
	draft, err := s.beginSave()
	if err != nil {
		return s.Snapshot(), err
	}

	if errs := ValidateAll(&draft, s.Config); len(errs) > 0 {
		s.endSave(nil, errs)
		return s.Snapshot(), &ValidationError{Errors: errs}
	}

	if s.Config.SecondaryPatientKey && strings.TrimSpace(draft.Identification.MRNumber) == "" {
		c := draft.Identification.Customer
		mr, err := svc.resolver.ResolveMRFromNamePhone(ctx, c.Name, c.Phone)
		if err != nil {
			errs := []FieldError{{FieldMRNumber, "No MR number found for the provided patient details."}}
			s.endSave(nil, errs)
			return s.Snapshot(), &ValidationError{Errors: errs}
		}
		has := true
		draft.Identification.HasMRNumber = &has
		draft.Identification.MRNumber = mr
	}

	order := svc.buildOrder(&draft, s.Config)

	// Freeform customers are registered first; a failure there aborts the
	// whole save so no order row can point at a missing customer.
	if order.MRNumber == nil {
		c := draft.Identification.Customer
		age, _ := strconv.Atoi(strings.TrimSpace(c.AgeInput))
		p := &patient.Patient{
			Name: c.Name, Phone: c.Phone, Address: c.Address,
			Age: age, Gender: c.Gender,
		}
		if err := svc.patients.Register(ctx, p); err != nil {
			s.endSave(nil, nil)
			return s.Snapshot(), &TransientError{Op: "customer registration", Err: err}
		}
		order.CustomerID = &p.ID
	}

	if s.Config.FinalizeBilling {
		return svc.finalizeBilling(ctx, s, &draft, order)
	}
	if s.EditMode && draft.OrderID != nil {
		return svc.saveEdit(ctx, s, order)
	}
	return svc.saveNew(ctx, s, order)
}

func (svc *Service) saveNew(ctx context.Context, s *Session, order *Order) (Snapshot, error) {
	id, err := svc.alloc.Allocate(ctx, order.Branch)
	if err != nil {
		s.endSave(nil, nil)
		return s.Snapshot(), err
	}
	order.OrderID = id

	err = svc.repo.Insert(ctx, order)
	if db.IsUniqueViolation(err) {
		// Another session on this branch won the race. Re-allocate and
		// retry exactly once.
		id, err = svc.alloc.Allocate(ctx, order.Branch)
		if err != nil {
			s.endSave(nil, nil)
			return s.Snapshot(), err
		}
		order.OrderID = id
		err = svc.repo.Insert(ctx, order)
		if db.IsUniqueViolation(err) {
			s.endSave(nil, nil)
			svc.log.Warn().Str("branch", order.Branch).Int64("order_id", id).
				Msg("order id conflict persisted after retry")
			return s.Snapshot(), &ConflictError{Branch: order.Branch, OrderID: id}
		}
	}
	if err != nil {
		s.endSave(nil, nil)
		return s.Snapshot(), &TransientError{Op: "order save", Err: err}
	}

	s.endSave(&id, nil)
	svc.log.Info().Str("branch", order.Branch).Int64("order_id", id).
		Str("kind", string(order.Kind)).Msg("order saved")
	return s.Snapshot(), nil
}

func (svc *Service) saveEdit(ctx context.Context, s *Session, order *Order) (Snapshot, error) {
	if err := svc.repo.Update(ctx, order); err != nil {
		s.endSave(nil, nil)
		if err == ErrNotFound {
			return s.Snapshot(), ErrNotFound
		}
		return s.Snapshot(), &TransientError{Op: "order update", Err: err}
	}

	// Close the approval that permitted this edit. Best effort; the order
	// itself is already committed.
	done, err := svc.mods.CompleteForOrder(ctx, order.OrderID, string(order.Kind))
	if err != nil {
		svc.log.Warn().Err(err).Int64("order_id", order.OrderID).
			Msg("modification request completion failed")
	} else if done {
		svc.log.Info().Int64("order_id", order.OrderID).Msg("modification request completed")
	}

	id := order.OrderID
	s.endSave(&id, nil)
	svc.log.Info().Str("branch", order.Branch).Int64("order_id", id).Msg("order edit saved")
	return s.Snapshot(), nil
}

func (svc *Service) finalizeBilling(ctx context.Context, s *Session, draft *Draft, order *Order) (Snapshot, error) {
	id := int64(0)
	if draft.OrderID != nil {
		id = *draft.OrderID
	} else {
		var err error
		id, err = svc.alloc.Allocate(ctx, order.Branch)
		if err != nil {
			s.endSave(nil, nil)
			return s.Snapshot(), err
		}
	}

	approved := draft.ApprovedValue()
	rec := &insurance.BillingRecord{
		PolicyID:       draft.PolicyID,
		OrderID:        &id,
		MRNumber:       order.MRNumber,
		InsurerName:    stringPtrOrNil(draft.Financial.InsurerName),
		TotalAmount:    order.TotalAmount,
		ApprovedAmount: approved,
		Employee:       stringPtrOrNil(order.Employee),
		Branch:         order.Branch,
	}
	if err := svc.policies.RecordBilling(ctx, rec); err != nil {
		s.endSave(nil, nil)
		return s.Snapshot(), &TransientError{Op: "reception billing hand-off", Err: err}
	}

	s.endSave(&id, nil)
	svc.log.Info().Str("branch", order.Branch).Int64("order_id", id).
		Msg("claim sent to reception billing")
	return s.Snapshot(), nil
}

// Print produces the bill document for a submitted draft and resets the
// session; re-entering the workflow after a print always starts fresh.
func (svc *Service) Print(token string) (*BillDocument, error) {
	s, err := svc.Session(token)
	if err != nil {
		return nil, err
	}
	if !s.Submitted() {
		return nil, ErrNotSubmitted
	}
	d := s.DraftCopy()
	doc := buildBill(&d, s.Config, svc.now())
	s.Reset()
	svc.log.Info().Str("branch", doc.Branch).Int64("order_id", doc.OrderID).Msg("bill printed")
	return doc, nil
}

// ListOrders pages through a branch's committed orders.
func (svc *Service) ListOrders(ctx context.Context, branch string, p pagination.Params) ([]*Order, int, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil, 0, &ValidationError{Errors: []FieldError{{"branch", "Branch is required."}}}
	}
	return svc.repo.List(ctx, branch, p)
}

// GetOrder fetches one committed order by its branch-scoped id.
func (svc *Service) GetOrder(ctx context.Context, branch string, orderID int64) (*Order, error) {
	return svc.repo.Get(ctx, branch, orderID)
}

func (svc *Service) buildOrder(d *Draft, cfg VariantConfig) *Order {
	totals := d.Totals()
	advance := d.AdvanceValue()

	o := &Order{
		Branch:        d.Branch,
		Kind:          cfg.Kind,
		Lines:         d.Lines,
		PaymentMethod: d.Financial.PaymentMethod,
		Discount:      totals.EffectiveDiscount,
		Advance:       advance,
		Subtotal:      totals.Subtotal,
		CGST:          totals.CGST,
		SGST:          totals.SGST,
		GrandTotal:    totals.GrandTotal,
		TotalAmount:   totals.DiscountedTotalGross,
		BalanceDue:    BalanceDue(totals, advance),
		Employee:      d.Attribution.Employee,
	}
	if d.OrderID != nil {
		o.OrderID = *d.OrderID
	}

	if d.Identification.HasMRNumber != nil && *d.Identification.HasMRNumber {
		mr := strings.TrimSpace(d.Identification.MRNumber)
		o.MRNumber = &mr
		if p := d.Patient; p != nil {
			o.Name = p.Name
			o.Phone = p.Phone
			o.Address = p.Address
			o.Age = p.Age
			o.Gender = p.Gender
		}
	} else {
		c := d.Identification.Customer
		o.Name = strings.TrimSpace(c.Name)
		o.Phone = strings.TrimSpace(c.Phone)
		o.Address = strings.TrimSpace(c.Address)
		o.Age, _ = strconv.Atoi(strings.TrimSpace(c.AgeInput))
		o.Gender = c.Gender
		o.CustomerID = d.CustomerID
	}

	if cfg.AllowB2B && d.Financial.B2B {
		o.B2B = true
		gst := strings.TrimSpace(d.Financial.GSTNumber)
		o.GSTNumber = &gst
	}
	if d.PolicyID != "" {
		pid := d.PolicyID
		o.PolicyID = &pid
	}
	o.ApprovedAmount = d.ApprovedAmount

	return o
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func stringPtrOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
