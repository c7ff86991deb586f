package workorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/opticare/billing/internal/domain/patient"
	"github.com/opticare/billing/pkg/pagination"
)

func uniqueViolation() error { return &pgconn.PgError{Code: "23505"} }

type mockOrderRepo struct {
	orders        map[string]map[int64]*Order
	insertCalls   int
	updateCalls   int
	conflictsLeft int
	// raceCommit makes each simulated conflict also commit the rival row,
	// so the next allocation sees a higher max.
	raceCommit bool
	insertErr  error
	updateErr  error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: map[string]map[int64]*Order{}}
}

func (m *mockOrderRepo) branch(branch string) map[int64]*Order {
	if m.orders[branch] == nil {
		m.orders[branch] = map[int64]*Order{}
	}
	return m.orders[branch]
}

func (m *mockOrderRepo) seed(o *Order) { m.branch(o.Branch)[o.OrderID] = o }

func (m *mockOrderRepo) MaxOrderID(_ context.Context, branch string) (int64, bool, error) {
	var max int64
	found := false
	for id := range m.orders[branch] {
		if !found || id > max {
			max = id
			found = true
		}
	}
	return max, found, nil
}

func (m *mockOrderRepo) Insert(_ context.Context, o *Order) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		if m.raceCommit {
			rival := *o
			rival.ID = uuid.New()
			m.branch(o.Branch)[o.OrderID] = &rival
		}
		return uniqueViolation()
	}
	if _, taken := m.branch(o.Branch)[o.OrderID]; taken {
		return uniqueViolation()
	}
	cp := *o
	m.branch(o.Branch)[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.branch(o.Branch)[o.OrderID]; !ok {
		return ErrNotFound
	}
	cp := *o
	m.branch(o.Branch)[o.OrderID] = &cp
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, branch string, orderID int64) (*Order, error) {
	o, ok := m.branch(branch)[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, branch string, _ pagination.Params) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.orders[branch] {
		cp := *o
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type mockMods struct {
	completed [][2]interface{}
	err       error
}

func (m *mockMods) CompleteForOrder(_ context.Context, orderID int64, orderType string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.completed = append(m.completed, [2]interface{}{orderID, orderType})
	return true, nil
}

type serviceFixture struct {
	svc      *Service
	repo     *mockOrderRepo
	patients *mockPatients
	policies *mockPolicies
	mods     *mockMods
}

func newFixture() *serviceFixture {
	repo := newMockOrderRepo()
	patients := &mockPatients{
		byMR:        map[string]*patient.Patient{"MR-1001": mrPatient("MR-1001")},
		byNamePhone: map[string]*patient.Patient{"Ravi|9000000001": mrPatient("MR-1001")},
	}
	policies := &mockPolicies{
		policyByMR:   map[string]string{"MR-1001": "POL-77"},
		approvedByID: map[string]float64{"POL-77": 1500},
	}
	mods := &mockMods{}
	resolver := syncResolver(patients, policies)
	svc := NewService(NewStore(time.Hour), repo, patients, policies, mods, resolver, zerolog.Nop())
	return &serviceFixture{svc: svc, repo: repo, patients: patients, policies: policies, mods: mods}
}

// readySession builds a fully valid MR-path work order session.
func (f *serviceFixture) readySession(t *testing.T) *Session {
	t.Helper()
	s, err := f.svc.StartSession(context.Background(), KindWorkOrder, "TVR", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	actions := []Action{
		{Type: ActionSetHasMR, Flag: true},
		{Type: ActionSetMRNumber, Value: "MR-1001"},
		{Type: ActionAddLine},
		{Type: ActionUpdateLine, Index: 0, Line: &LinePatch{
			ProductID: strPtr("LENS-100"), ProductName: strPtr("Lens"),
			Price: floatPtr(112), Quantity: intPtr(2),
		}},
		{Type: ActionSetPaymentMethod, Value: "cash"},
		{Type: ActionSetAdvance, Value: "100"},
		{Type: ActionSetEmployee, Value: "Anu"},
	}
	for _, a := range actions {
		if _, err := f.svc.Apply(s.Token, a); err != nil {
			t.Fatalf("Apply(%s): %v", a.Type, err)
		}
	}
	return s
}

func TestSaveNewOrder(t *testing.T) {
	f := newFixture()
	s := f.readySession(t)

	snap, err := f.svc.Save(context.Background(), s.Token)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if snap.Draft.OrderID == nil || *snap.Draft.OrderID != 3742 {
		t.Fatalf("first TVR order must take the branch base id, got %v", snap.Draft.OrderID)
	}
	if !snap.Draft.Submitted {
		t.Error("draft must be marked submitted")
	}

	got := f.repo.orders["TVR"][3742]
	if got == nil {
		t.Fatal("order row not committed")
	}
	if got.MRNumber == nil || *got.MRNumber != "MR-1001" {
		t.Errorf("mr number = %v", got.MRNumber)
	}
	if got.Name != "Ravi" {
		t.Errorf("customer name from resolved patient = %q, want Ravi", got.Name)
	}
	if !almostEqual(got.GrandTotal, 224.00) || !almostEqual(got.BalanceDue, 124.00) {
		t.Errorf("grand total %v / balance %v, want 224.00 / 124.00", got.GrandTotal, got.BalanceDue)
	}
	if got.CustomerID != nil {
		t.Error("mr-path order must not carry a customer id")
	}
	if got.PolicyID == nil || *got.PolicyID != "POL-77" {
		t.Errorf("policy id = %v, want POL-77", got.PolicyID)
	}
}

func TestSaveRejectsInvalidDraft(t *testing.T) {
	f := newFixture()
	s := f.readySession(t)
	f.svc.Apply(s.Token, Action{Type: ActionSetEmployee, Value: ""})

	_, err := f.svc.Save(context.Background(), s.Token)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Focus() != FieldEmployee {
		t.Errorf("focus = %q, want employee", ve.Focus())
	}
	if f.repo.insertCalls != 0 {
		t.Error("invalid draft must never reach the repository")
	}

	// The draft stays open for a corrected retry.
	f.svc.Apply(s.Token, Action{Type: ActionSetEmployee, Value: "Anu"})
	if _, err := f.svc.Save(context.Background(), s.Token); err != nil {
		t.Errorf("retry after fixing the draft failed: %v", err)
	}
}

func TestSaveFreeformRegistersCustomer(t *testing.T) {
	f := newFixture()
	s, err := f.svc.StartSession(context.Background(), KindWorkOrder, "TVR", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	actions := []Action{
		{Type: ActionSetHasMR, Flag: false},
		{Type: ActionSetCustomer, Customer: &CustomerPatch{
			Name: strPtr("Meera"), Phone: strPtr("9000000002"),
			Address: strPtr("North St"), AgeInput: strPtr("36"), Gender: strPtr("female"),
		}},
		{Type: ActionAddLine},
		{Type: ActionUpdateLine, Index: 0, Line: &LinePatch{
			ProductID: strPtr("FRM-001"), Price: floatPtr(560), Quantity: intPtr(1),
		}},
		{Type: ActionSetPaymentMethod, Value: "card"},
		{Type: ActionSetAdvance, Value: "0"},
		{Type: ActionSetEmployee, Value: "Anu"},
	}
	for _, a := range actions {
		if _, err := f.svc.Apply(s.Token, a); err != nil {
			t.Fatalf("Apply(%s): %v", a.Type, err)
		}
	}

	if _, err := f.svc.Save(context.Background(), s.Token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if len(f.patients.registered) != 1 || f.patients.registered[0].Name != "Meera" {
		t.Fatalf("expected one registered customer, got %v", f.patients.registered)
	}
	got := f.repo.orders["TVR"][3742]
	if got == nil {
		t.Fatal("order not committed")
	}
	if got.CustomerID == nil || *got.CustomerID != f.patients.registered[0].ID {
		t.Error("order must link the newly registered customer")
	}
}

func TestSaveAbortsWhenRegistrationFails(t *testing.T) {
	f := newFixture()
	f.patients.registerErr = errors.New("insert failed")
	s, err := f.svc.StartSession(context.Background(), KindWorkOrder, "TVR", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	for _, a := range []Action{
		{Type: ActionSetHasMR, Flag: false},
		{Type: ActionSetCustomer, Customer: &CustomerPatch{
			Name: strPtr("Meera"), Phone: strPtr("9000000002"),
			Address: strPtr("North St"), AgeInput: strPtr("36"), Gender: strPtr("female"),
		}},
		{Type: ActionSetPaymentMethod, Value: "card"},
		{Type: ActionSetAdvance, Value: "0"},
		{Type: ActionSetEmployee, Value: "Anu"},
	} {
		if _, err := f.svc.Apply(s.Token, a); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	_, err = f.svc.Save(context.Background(), s.Token)
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if f.repo.insertCalls != 0 {
		t.Error("registration failure must abort before the order insert")
	}
	if s.Submitted() {
		t.Error("aborted save must leave the draft open")
	}
}

func TestSaveConflictRetriesExactlyOnce(t *testing.T) {
	f := newFixture()
	f.repo.seed(&Order{Branch: "TVR", OrderID: 3742})
	f.repo.conflictsLeft = 1
	f.repo.raceCommit = true
	s := f.readySession(t)

	snap, err := f.svc.Save(context.Background(), s.Token)
	if err != nil {
		t.Fatalf("Save failed despite retry: %v", err)
	}
	if f.repo.insertCalls != 2 {
		t.Errorf("insert calls = %d, want 2 (original + one retry)", f.repo.insertCalls)
	}
	if snap.Draft.OrderID == nil || *snap.Draft.OrderID != 3744 {
		t.Errorf("retry must commit under the re-allocated id, got %v", snap.Draft.OrderID)
	}
}

func TestSaveSecondConflictSurfaces(t *testing.T) {
	f := newFixture()
	f.repo.conflictsLeft = 2
	s := f.readySession(t)

	_, err := f.svc.Save(context.Background(), s.Token)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if f.repo.insertCalls != 2 {
		t.Errorf("insert calls = %d, conflict handling must not loop", f.repo.insertCalls)
	}
	if s.Submitted() {
		t.Error("conflicted save must leave the draft open for manual retry")
	}
}

func TestSaveDuplicateSubmissionRejected(t *testing.T) {
	f := newFixture()
	s := f.readySession(t)

	if _, err := f.svc.Save(context.Background(), s.Token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := f.svc.Save(context.Background(), s.Token); err != ErrAlreadySubmitted {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
	if f.repo.insertCalls != 1 {
		t.Errorf("insert calls = %d, re-submission must be a no-op", f.repo.insertCalls)
	}
}

func TestEditSessionSavesInPlace(t *testing.T) {
	f := newFixture()
	mr := "MR-1001"
	f.repo.seed(&Order{
		Branch: "TVR", OrderID: 3742, Kind: KindWorkOrder, MRNumber: &mr,
		Name: "Ravi", Phone: "9000000001", Address: "Main Rd", Age: 41, Gender: "male",
		Lines:         []LineItem{{ProductID: "LENS-100", Price: 112, Quantity: 2}},
		PaymentMethod: "cash", Advance: 100, Employee: "Anu",
	})

	editID := int64(3742)
	s, err := f.svc.StartSession(context.Background(), KindWorkOrder, "TVR", &editID)
	if err != nil {
		t.Fatalf("StartSession(edit): %v", err)
	}
	if !s.EditMode {
		t.Fatal("session must be in edit mode")
	}
	snap := s.Snapshot()
	if snap.Draft.OrderID == nil || *snap.Draft.OrderID != 3742 {
		t.Fatalf("hydrated draft must pin the order id, got %v", snap.Draft.OrderID)
	}
	if len(snap.Draft.Lines) != 1 || snap.Draft.Lines[0].ProductID != "LENS-100" {
		t.Errorf("lines not hydrated: %v", snap.Draft.Lines)
	}

	if _, err := f.svc.Apply(s.Token, Action{Type: ActionSetAdvance, Value: "150"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	snap, err = f.svc.Save(context.Background(), s.Token)
	if err != nil {
		t.Fatalf("Save(edit) failed: %v", err)
	}

	if *snap.Draft.OrderID != 3742 {
		t.Errorf("edit must never reallocate, got %v", *snap.Draft.OrderID)
	}
	if f.repo.insertCalls != 0 || f.repo.updateCalls != 1 {
		t.Errorf("insert/update calls = %d/%d, want 0/1", f.repo.insertCalls, f.repo.updateCalls)
	}
	if got := f.repo.orders["TVR"][3742]; !almostEqual(got.Advance, 150) {
		t.Errorf("updated advance = %v, want 150", got.Advance)
	}
	if len(f.mods.completed) != 1 || f.mods.completed[0][0] != int64(3742) {
		t.Errorf("open modification request must be completed, got %v", f.mods.completed)
	}
}

func TestEditHydrationNotFound(t *testing.T) {
	f := newFixture()
	editID := int64(9999)

	_, err := f.svc.StartSession(context.Background(), KindWorkOrder, "TVR", &editID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClaimSaveWritesReceptionBilling(t *testing.T) {
	f := newFixture()
	s, err := f.svc.StartSession(context.Background(), KindInsuranceClaim, "TVR", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	for _, a := range []Action{
		{Type: ActionSetHasMR, Flag: false},
		{Type: ActionSetCustomer, Customer: &CustomerPatch{
			Name: strPtr("Ravi"), Phone: strPtr("9000000001"),
			Address: strPtr("Main Rd"), AgeInput: strPtr("41"), Gender: strPtr("male"),
		}},
		{Type: ActionAddLine},
		{Type: ActionUpdateLine, Index: 0, Line: &LinePatch{
			ProductID: strPtr("LENS-100"), Price: floatPtr(112), Quantity: intPtr(2),
		}},
		{Type: ActionSetPaymentMethod, Value: "insurance"},
		{Type: ActionSetAdvance, Value: "0"},
		{Type: ActionSetInsurer, Value: "Star Health"},
		{Type: ActionSetApprovedAmount, Value: "150"},
		{Type: ActionSetEmployee, Value: "Anu"},
	} {
		if _, err := f.svc.Apply(s.Token, a); err != nil {
			t.Fatalf("Apply(%s): %v", a.Type, err)
		}
	}

	if _, err := f.svc.Save(context.Background(), s.Token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if f.repo.insertCalls != 0 {
		t.Error("claim finalize must not write the order table")
	}
	if len(f.policies.billed) != 1 {
		t.Fatalf("expected one reception billing row, got %d", len(f.policies.billed))
	}
	rec := f.policies.billed[0]
	if rec.MRNumber == nil || *rec.MRNumber != "MR-1001" {
		t.Errorf("mr from name+phone lookup = %v, want MR-1001", rec.MRNumber)
	}
	if rec.InsurerName == nil || *rec.InsurerName != "Star Health" {
		t.Errorf("insurer = %v", rec.InsurerName)
	}
	if !almostEqual(rec.ApprovedAmount, 150) {
		t.Errorf("approved = %v, want 150", rec.ApprovedAmount)
	}
	if !almostEqual(rec.TotalAmount, 224.00) {
		t.Errorf("total = %v, want 224.00", rec.TotalAmount)
	}
}

func TestClaimSaveUnknownPatientRejected(t *testing.T) {
	f := newFixture()
	s, err := f.svc.StartSession(context.Background(), KindInsuranceClaim, "TVR", nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	for _, a := range []Action{
		{Type: ActionSetHasMR, Flag: false},
		{Type: ActionSetCustomer, Customer: &CustomerPatch{
			Name: strPtr("Nobody"), Phone: strPtr("0000000000"),
			Address: strPtr("Main Rd"), AgeInput: strPtr("41"), Gender: strPtr("male"),
		}},
		{Type: ActionSetPaymentMethod, Value: "insurance"},
		{Type: ActionSetAdvance, Value: "0"},
		{Type: ActionSetEmployee, Value: "Anu"},
	} {
		if _, err := f.svc.Apply(s.Token, a); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	_, err = f.svc.Save(context.Background(), s.Token)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Focus() != FieldMRNumber {
		t.Errorf("focus = %q, want mr_number", ve.Focus())
	}
	if len(f.policies.billed) != 0 {
		t.Error("failed lookup must abort the billing hand-off")
	}
}

func TestPrintRequiresSaveAndResets(t *testing.T) {
	f := newFixture()
	s := f.readySession(t)

	if _, err := f.svc.Print(s.Token); err != ErrNotSubmitted {
		t.Fatalf("print before save: expected ErrNotSubmitted, got %v", err)
	}

	if _, err := f.svc.Save(context.Background(), s.Token); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc, err := f.svc.Print(s.Token)
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if doc.OrderID != 3742 {
		t.Errorf("doc order id = %d, want 3742", doc.OrderID)
	}
	// The printed Total Amount is the gross-discount figure.
	if !almostEqual(doc.TotalAmount, 224.00) {
		t.Errorf("doc total amount = %v, want 224.00", doc.TotalAmount)
	}
	if !almostEqual(doc.BalanceDue, 124.00) {
		t.Errorf("doc balance = %v, want 124.00", doc.BalanceDue)
	}
	if doc.Customer.MRNumber != "MR-1001" || doc.Customer.Name != "Ravi" {
		t.Errorf("doc customer block = %+v", doc.Customer)
	}

	// Printing is terminal: the session starts over.
	snap := s.Snapshot()
	if snap.Draft.Submitted || snap.Draft.Step != StepIdentification || snap.Draft.OrderID != nil {
		t.Errorf("session must reset after print: %+v", snap.Draft)
	}
	if _, err := f.svc.Print(s.Token); err != ErrNotSubmitted {
		t.Errorf("re-print after reset: expected ErrNotSubmitted, got %v", err)
	}
}

func TestStartSessionValidation(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.StartSession(context.Background(), Kind("bogus"), "TVR", nil); err == nil {
		t.Error("unknown kind must be rejected")
	}
	if _, err := f.svc.StartSession(context.Background(), KindWorkOrder, "  ", nil); err == nil {
		t.Error("blank branch must be rejected")
	}
}

func TestDiscardDropsSession(t *testing.T) {
	f := newFixture()
	s := f.readySession(t)

	f.svc.Discard(s.Token)

	if _, err := f.svc.Session(s.Token); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
