package workorder

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects one of the three workflow variants sharing this engine.
type Kind string

const (
	KindWorkOrder         Kind = "work_order"
	KindInsuranceClaim    Kind = "insurance_claim"
	KindInsuranceCheckout Kind = "insurance_checkout"
)

// Step is the workflow position. The guard index past Finalize exists only
// as an upper bound for transition checks and must never carry content.
type Step int

const (
	StepIdentification Step = iota + 1
	StepFinancialTerms
	StepAttribution
	StepFinalize
	stepGuard
)

func (s Step) String() string {
	switch s {
	case StepIdentification:
		return "identification"
	case StepFinancialTerms:
		return "financial_terms"
	case StepAttribution:
		return "attribution"
	case StepFinalize:
		return "finalize"
	}
	return "unknown"
}

// LineItem is one ordered product row. Price is the tax-inclusive unit
// price; position in the slice carries only display order.
type LineItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	HSNCode     string  `json:"hsn_code,omitempty"`
}

// CustomerDetails are the freeform identification fields used when the
// operator has no MR number. Age is kept as typed input until validation.
type CustomerDetails struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	AgeInput string `json:"age"`
	Gender   string `json:"gender"`
}

// Identification is the first step's field group. HasMRNumber is tri-state:
// nil means the operator has not answered the question yet, which is itself
// a validation error.
type Identification struct {
	HasMRNumber *bool           `json:"has_mr_number"`
	MRNumber    string          `json:"mr_number"`
	Customer    CustomerDetails `json:"customer"`
}

// FinancialTerms is the second step's field group. Discount and advance stay
// as raw operator input so validation can distinguish empty, zero and
// non-numeric values.
type FinancialTerms struct {
	PaymentMethod string `json:"payment_method"`
	DiscountInput string `json:"discount"`
	AdvanceInput  string `json:"advance"`
	B2B           bool   `json:"b2b"`
	GSTNumber     string `json:"gst_number"`
	InsurerName   string `json:"insurer_name"`
	ApprovedInput string `json:"approved_amount"`
}

// Attribution is the third step's field group.
type Attribution struct {
	Employee string `json:"employee"`
}

// ResolvedPatient is the read-only enrichment panel filled by the resolver
// after an MR number lookup.
type ResolvedPatient struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Age     int       `json:"age"`
	Gender  string    `json:"gender"`
}

// Draft is the in-progress order owned by one workflow session. It is
// discarded on successful submission, explicit exit, or session expiry.
type Draft struct {
	Branch  string `json:"branch"`
	OrderID *int64 `json:"order_id"`

	Lines          []LineItem     `json:"lines"`
	Identification Identification `json:"identification"`
	Financial      FinancialTerms `json:"financial"`
	Attribution    Attribution    `json:"attribution"`

	// Resolver-populated enrichment. PolicyID and ApprovedAmount degrade
	// independently to unknown on lookup failure.
	Patient        *ResolvedPatient `json:"patient,omitempty"`
	CustomerID     *uuid.UUID       `json:"customer_id,omitempty"`
	PolicyID       string           `json:"policy_id,omitempty"`
	ApprovedAmount *float64         `json:"approved_amount,omitempty"`

	Step      Step `json:"step"`
	Submitted bool `json:"submitted"`
}

// NewDraft returns the initial state: first step, no lines, no identifier.
func NewDraft(branch string) *Draft {
	return &Draft{
		Branch: branch,
		Step:   StepIdentification,
	}
}

// clone returns a copy that shares no memory with the receiver. The line
// slice and every pointer field are duplicated so a caller may read the
// copy after the session lock is released while actions keep mutating the
// live draft.
func (d *Draft) clone() Draft {
	c := *d
	if d.Lines != nil {
		c.Lines = append([]LineItem(nil), d.Lines...)
	}
	if d.OrderID != nil {
		v := *d.OrderID
		c.OrderID = &v
	}
	if d.Identification.HasMRNumber != nil {
		v := *d.Identification.HasMRNumber
		c.Identification.HasMRNumber = &v
	}
	if d.Patient != nil {
		p := *d.Patient
		c.Patient = &p
	}
	if d.CustomerID != nil {
		id := *d.CustomerID
		c.CustomerID = &id
	}
	if d.ApprovedAmount != nil {
		v := *d.ApprovedAmount
		c.ApprovedAmount = &v
	}
	return c
}

// ActionType is the closed set of draft mutations. Every change to a draft
// flows through Session.Apply with one of these.
type ActionType string

const (
	ActionSetBranch         ActionType = "set_branch"
	ActionSetHasMR          ActionType = "set_has_mr"
	ActionSetMRNumber       ActionType = "set_mr_number"
	ActionSetCustomer       ActionType = "set_customer"
	ActionAddLine           ActionType = "add_line"
	ActionRemoveLine        ActionType = "remove_line"
	ActionUpdateLine        ActionType = "update_line"
	ActionSetPaymentMethod  ActionType = "set_payment_method"
	ActionSetDiscount       ActionType = "set_discount"
	ActionSetAdvance        ActionType = "set_advance"
	ActionSetB2B            ActionType = "set_b2b"
	ActionSetGSTNumber      ActionType = "set_gst_number"
	ActionSetInsurer        ActionType = "set_insurer"
	ActionSetEmployee       ActionType = "set_employee"
	ActionSetApprovedAmount ActionType = "set_approved_amount"
)

// LinePatch carries partial line edits; nil fields are left untouched.
type LinePatch struct {
	ProductID   *string  `json:"product_id,omitempty"`
	ProductName *string  `json:"product_name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	HSNCode     *string  `json:"hsn_code,omitempty"`
}

// CustomerPatch carries partial freeform customer edits.
type CustomerPatch struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	AgeInput *string `json:"age,omitempty"`
	Gender   *string `json:"gender,omitempty"`
}

// Action is one named draft mutation.
type Action struct {
	Type     ActionType     `json:"type"`
	Value    string         `json:"value,omitempty"`
	Flag     bool           `json:"flag,omitempty"`
	Index    int            `json:"index,omitempty"`
	Line     *LinePatch     `json:"line,omitempty"`
	Customer *CustomerPatch `json:"customer,omitempty"`
}

// Order is the committed record. Once saved it is addressed by the unique
// (branch, order id) key; edits update in place, never reallocate.
type Order struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Branch  string    `db:"branch" json:"branch"`
	OrderID int64     `db:"work_order_id" json:"work_order_id"`
	Kind    Kind      `db:"kind" json:"kind"`

	MRNumber   *string    `db:"mr_number" json:"mr_number,omitempty"`
	CustomerID *uuid.UUID `db:"customer_id" json:"customer_id,omitempty"`
	Name       string     `db:"customer_name" json:"customer_name"`
	Phone      string     `db:"phone_number" json:"phone_number"`
	Address    string     `db:"address" json:"address"`
	Age        int        `db:"age" json:"age"`
	Gender     string     `db:"gender" json:"gender"`

	Lines []LineItem `db:"lines" json:"lines"`

	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	Discount      float64 `db:"discount" json:"discount"`
	Advance       float64 `db:"advance" json:"advance"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	CGST          float64 `db:"cgst" json:"cgst"`
	SGST          float64 `db:"sgst" json:"sgst"`
	GrandTotal    float64 `db:"grand_total" json:"grand_total"`
	TotalAmount   float64 `db:"total_amount" json:"total_amount"`
	BalanceDue    float64 `db:"balance_due" json:"balance_due"`

	B2B       bool    `db:"b2b" json:"b2b"`
	GSTNumber *string `db:"gst_number" json:"gst_number,omitempty"`
	Employee  string  `db:"employee" json:"employee"`

	PolicyID       *string  `db:"s_id_cr" json:"s_id_cr,omitempty"`
	ApprovedAmount *float64 `db:"approved_amount" json:"approved_amount,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
