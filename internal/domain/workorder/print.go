package workorder

import (
	"fmt"
	"time"
)

// BillLine is one printed row of the bill table.
type BillLine struct {
	SNo         int     `json:"s_no"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	HSNCode     string  `json:"hsn_code,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Amount      float64 `json:"amount"`
}

// BillCustomer is the customer block on the printed bill.
type BillCustomer struct {
	MRNumber string `json:"mr_number,omitempty"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// BillDocument is the read-only snapshot handed to the rendering
// collaborator after a successful save. TotalAmount is the gross-discount
// figure; GrandTotal is carried alongside for the other displays.
type BillDocument struct {
	OrderID       int64        `json:"order_id"`
	Branch        string       `json:"branch"`
	Kind          Kind         `json:"kind"`
	Date          string       `json:"date"`
	FinancialYear string       `json:"financial_year"`
	Customer      BillCustomer `json:"customer"`
	Lines         []BillLine   `json:"lines"`
	Subtotal      float64      `json:"subtotal"`
	Discount      float64      `json:"discount"`
	CGST          float64      `json:"cgst"`
	SGST          float64      `json:"sgst"`
	TotalAmount   float64      `json:"total_amount"`
	GrandTotal    float64      `json:"grand_total"`
	Advance       float64      `json:"advance"`
	BalanceDue    float64      `json:"balance_due"`
	PaymentMethod string       `json:"payment_method"`
	Employee      string       `json:"employee"`
	B2B           bool         `json:"b2b,omitempty"`
	GSTNumber     string       `json:"gst_number,omitempty"`
}

// FinancialYear labels the Indian fiscal year containing t as "YY-YY",
// rolling over in April.
func FinancialYear(t time.Time) string {
	year := t.Year()
	start := year % 100
	end := (year + 1) % 100
	if t.Month() < time.April {
		start = (year - 1) % 100
		end = year % 100
	}
	return fmt.Sprintf("%02d-%02d", start, end)
}

// buildBill assembles the printable document from a submitted draft.
func buildBill(d *Draft, cfg VariantConfig, now time.Time) *BillDocument {
	totals := d.Totals()

	doc := &BillDocument{
		Branch:        d.Branch,
		Kind:          cfg.Kind,
		Date:          now.Format("02/01/2006"),
		FinancialYear: FinancialYear(now),
		Subtotal:      totals.Subtotal,
		Discount:      totals.EffectiveDiscount,
		CGST:          totals.CGST,
		SGST:          totals.SGST,
		TotalAmount:   totals.DiscountedTotalGross,
		GrandTotal:    totals.GrandTotal,
		Advance:       d.AdvanceValue(),
		BalanceDue:    BalanceDue(totals, d.AdvanceValue()),
		PaymentMethod: d.Financial.PaymentMethod,
		Employee:      d.Attribution.Employee,
	}
	if d.OrderID != nil {
		doc.OrderID = *d.OrderID
	}
	if cfg.AllowB2B && d.Financial.B2B {
		doc.B2B = true
		doc.GSTNumber = d.Financial.GSTNumber
	}

	if d.Identification.HasMRNumber != nil && *d.Identification.HasMRNumber {
		doc.Customer.MRNumber = d.Identification.MRNumber
		if p := d.Patient; p != nil {
			doc.Customer.Name = p.Name
			doc.Customer.Phone = p.Phone
			doc.Customer.Address = p.Address
			doc.Customer.Age = p.Age
			doc.Customer.Gender = p.Gender
		}
	} else {
		c := d.Identification.Customer
		doc.Customer.Name = c.Name
		doc.Customer.Phone = c.Phone
		doc.Customer.Address = c.Address
		doc.Customer.Age = int(parseAmount(c.AgeInput))
		doc.Customer.Gender = c.Gender
	}

	for i, line := range d.Lines {
		doc.Lines = append(doc.Lines, BillLine{
			SNo:         i + 1,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			HSNCode:     line.HSNCode,
			Price:       line.Price,
			Quantity:    line.Quantity,
			Amount:      line.Price * float64(line.Quantity),
		})
	}
	return doc
}
