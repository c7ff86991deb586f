package workorder

import (
	"fmt"
	"sync"
	"time"
)

// stepFocus is the primary field receiving input focus on step entry.
var stepFocus = map[Step]string{
	StepIdentification: FieldHasMRNumber,
	StepFinancialTerms: FieldDiscount,
	StepAttribution:    FieldEmployee,
	StepFinalize:       "",
}

// Session is one live workflow editing session. The draft is owned
// exclusively by the session; all mutation goes through Apply, Advance and
// Retreat under the session lock. Resolver goroutines re-enter through
// ApplyResolved, which discards results from a superseded draft via the
// generation counter.
type Session struct {
	Token    string
	Config   VariantConfig
	EditMode bool

	mu         sync.Mutex
	draft      *Draft
	errors     []FieldError
	notices    []string
	focus      string
	saving     bool
	generation uint64
	createdAt  time.Time
	touchedAt  time.Time
}

func NewSession(token string, cfg VariantConfig, branch string) *Session {
	now := time.Now()
	return &Session{
		Token:     token,
		Config:    cfg,
		draft:     NewDraft(branch),
		focus:     stepFocus[StepIdentification],
		createdAt: now,
		touchedAt: now,
	}
}

// NewEditSession wraps an already hydrated draft; the order id is pinned
// and never reallocated.
func NewEditSession(token string, cfg VariantConfig, draft *Draft) *Session {
	now := time.Now()
	draft.Step = StepIdentification
	return &Session{
		Token:     token,
		Config:    cfg,
		EditMode:  true,
		draft:     draft,
		focus:     stepFocus[StepIdentification],
		createdAt: now,
		touchedAt: now,
	}
}

// Snapshot is the read-only view handed to the transport layer: the draft
// plus everything derived from it.
type Snapshot struct {
	Token            string       `json:"token"`
	Kind             Kind         `json:"kind"`
	EditMode         bool         `json:"edit_mode"`
	Draft            Draft        `json:"draft"`
	Totals           Totals       `json:"totals"`
	BalanceDue       float64      `json:"balance_due"`
	InsuranceBalance *float64     `json:"insurance_balance,omitempty"`
	Errors           []FieldError `json:"errors,omitempty"`
	Notices          []string     `json:"notices,omitempty"`
	Focus            string       `json:"focus,omitempty"`
	Saving           bool         `json:"saving"`
}

// Snapshot derives the current view. Totals are recomputed on every call,
// never cached across mutations.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	d := s.draft.clone()
	totals := d.Totals()
	snap := Snapshot{
		Token:      s.Token,
		Kind:       s.Config.Kind,
		EditMode:   s.EditMode,
		Draft:      d,
		Totals:     totals,
		BalanceDue: BalanceDue(totals, d.AdvanceValue()),
		Errors:     s.errors,
		Notices:    s.notices,
		Focus:      s.focus,
		Saving:     s.saving,
	}
	if approved := s.approvedLocked(); approved != nil {
		bal := InsuranceBalance(totals, s.Config.BalanceBasis, *approved)
		snap.InsuranceBalance = &bal
	}
	return snap
}

// approvedLocked resolves the approved amount in effect: the resolver's
// figure, or the operator's entry for the manual variant. Nil means still
// unknown and the balance shows as N/A.
func (s *Session) approvedLocked() *float64 {
	if s.draft.ApprovedAmount != nil {
		return s.draft.ApprovedAmount
	}
	if s.Config.ManualApproved && s.draft.Financial.ApprovedInput != "" {
		v := s.draft.ApprovedValue()
		return &v
	}
	return nil
}

// Apply runs one named mutation against the draft. Mutations are rejected
// while a save is in flight or after a successful submission.
func (s *Session) Apply(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInProgress
	}
	if s.draft.Submitted {
		return ErrAlreadySubmitted
	}
	s.touchedAt = time.Now()
	return s.applyLocked(a)
}

func (s *Session) applyLocked(a Action) error {
	d := s.draft
	switch a.Type {
	case ActionSetBranch:
		d.Branch = a.Value
	case ActionSetHasMR:
		v := a.Flag
		d.Identification.HasMRNumber = &v
	case ActionSetMRNumber:
		if d.Identification.MRNumber != a.Value {
			d.Identification.MRNumber = a.Value
			s.clearEnrichmentLocked()
		}
	case ActionSetCustomer:
		if a.Customer == nil {
			return fmt.Errorf("set_customer requires a customer patch")
		}
		c := &d.Identification.Customer
		if a.Customer.Name != nil {
			c.Name = *a.Customer.Name
		}
		if a.Customer.Phone != nil {
			c.Phone = *a.Customer.Phone
		}
		if a.Customer.Address != nil {
			c.Address = *a.Customer.Address
		}
		if a.Customer.AgeInput != nil {
			c.AgeInput = *a.Customer.AgeInput
		}
		if a.Customer.Gender != nil {
			c.Gender = *a.Customer.Gender
		}
	case ActionAddLine:
		d.Lines = append(d.Lines, LineItem{})
	case ActionRemoveLine:
		if a.Index < 0 || a.Index >= len(d.Lines) {
			return fmt.Errorf("line index %d out of range", a.Index)
		}
		d.Lines = append(d.Lines[:a.Index], d.Lines[a.Index+1:]...)
	case ActionUpdateLine:
		if a.Index < 0 || a.Index >= len(d.Lines) {
			return fmt.Errorf("line index %d out of range", a.Index)
		}
		if a.Line == nil {
			return fmt.Errorf("update_line requires a line patch")
		}
		line := &d.Lines[a.Index]
		if a.Line.ProductID != nil {
			line.ProductID = *a.Line.ProductID
		}
		if a.Line.ProductName != nil {
			line.ProductName = *a.Line.ProductName
		}
		if a.Line.Price != nil {
			line.Price = *a.Line.Price
		}
		if a.Line.Quantity != nil {
			line.Quantity = *a.Line.Quantity
		}
		if a.Line.HSNCode != nil {
			line.HSNCode = *a.Line.HSNCode
		}
	case ActionSetPaymentMethod:
		d.Financial.PaymentMethod = a.Value
	case ActionSetDiscount:
		d.Financial.DiscountInput = a.Value
	case ActionSetAdvance:
		d.Financial.AdvanceInput = a.Value
	case ActionSetB2B:
		if !s.Config.AllowB2B {
			return fmt.Errorf("b2b is not available for %s", s.Config.Kind)
		}
		d.Financial.B2B = a.Flag
	case ActionSetGSTNumber:
		d.Financial.GSTNumber = a.Value
	case ActionSetInsurer:
		d.Financial.InsurerName = a.Value
	case ActionSetEmployee:
		d.Attribution.Employee = a.Value
	case ActionSetApprovedAmount:
		if !s.Config.ManualApproved {
			return fmt.Errorf("approved amount is not operator-entered for %s", s.Config.Kind)
		}
		d.Financial.ApprovedInput = a.Value
	default:
		return fmt.Errorf("unknown action %q", a.Type)
	}
	return nil
}

// clearEnrichmentLocked drops resolver results when their key input
// changes, and bumps the generation so in-flight lookups for the old key
// are discarded on return.
func (s *Session) clearEnrichmentLocked() {
	s.draft.Patient = nil
	s.draft.PolicyID = ""
	s.draft.ApprovedAmount = nil
	s.notices = nil
	s.generation++
}

// Advance validates the current step and moves forward only when clean.
// On failure the step does not change and the first failing field receives
// focus. A submitted draft is frozen on the terminal step.
func (s *Session) Advance() ([]FieldError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Submitted {
		return nil, ErrAlreadySubmitted
	}
	s.touchedAt = time.Now()

	errs := ValidateStep(s.draft, s.Config, s.draft.Step)
	if len(errs) > 0 {
		s.errors = errs
		s.focus = errs[0].Field
		return errs, nil
	}

	s.errors = nil
	if next := s.draft.Step + 1; next < stepGuard {
		s.draft.Step = next
	}
	s.focus = stepFocus[s.draft.Step]
	return nil, nil
}

// Retreat moves back one step. Never validates, but a submitted draft is
// frozen on the terminal step like every other mutation.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft.Submitted {
		return ErrAlreadySubmitted
	}
	s.touchedAt = time.Now()

	if s.draft.Step > StepIdentification {
		s.draft.Step--
	}
	s.errors = nil
	s.focus = stepFocus[s.draft.Step]
	return nil
}

// Generation returns the staleness token a resolver captures before
// starting its lookups.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ApplyResolved applies a resolver result to the draft unless the draft
// has moved on since the lookup started. Reports whether it was applied.
func (s *Session) ApplyResolved(gen uint64, fn func(*Draft)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.draft.Submitted {
		return false
	}
	fn(s.draft)
	return true
}

// NotifyResolved records a user-facing resolver notice unless the draft
// has moved on since the lookup started.
func (s *Session) NotifyResolved(gen uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.draft.Submitted {
		return false
	}
	s.notices = append(s.notices, msg)
	return true
}

// Reset discards the draft and starts a fresh one on the same branch.
// In-flight resolver results for the old draft are orphaned by the
// generation bump.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	branch := s.draft.Branch
	s.draft = NewDraft(branch)
	s.errors = nil
	s.notices = nil
	s.focus = stepFocus[StepIdentification]
	s.saving = false
	s.EditMode = false
	s.generation++
	s.touchedAt = time.Now()
}

// beginSave flips the busy flag, rejecting duplicate and post-submission
// saves with explicit errors rather than silently ignoring them.
func (s *Session) beginSave() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return Draft{}, ErrSaveInProgress
	}
	if s.draft.Submitted {
		return Draft{}, ErrAlreadySubmitted
	}
	s.saving = true
	s.touchedAt = time.Now()
	return s.draft.clone(), nil
}

// endSave clears the busy flag on every outcome. On success the committed
// id is pinned and the draft marked submitted.
func (s *Session) endSave(orderID *int64, errs []FieldError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if errs != nil {
		s.errors = errs
		s.focus = errs[0].Field
		return
	}
	if orderID != nil {
		s.draft.OrderID = orderID
		s.draft.Submitted = true
		s.draft.Step = StepFinalize
		s.errors = nil
		s.focus = ""
	}
}

// DraftCopy returns a point-in-time copy of the draft.
func (s *Session) DraftCopy() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

// TouchedAt reports the last interaction time, used for session expiry.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Submitted reports whether the draft has been committed.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Submitted
}
