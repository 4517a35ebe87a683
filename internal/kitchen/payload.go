package kitchen

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentOrder is the cashier pad's in-progress order, the input to a
// kitchen submission. It mirrors what the pad front end holds locally
// before the order is materialized on the store.
type CurrentOrder struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	SessionID  int64      `json:"session_id"`
	CompanyID  int64      `json:"company_id"`
	ConfigID   int64      `json:"config_id"`
	DateOrder  time.Time  `json:"date_order"`
	AmountPaid string     `json:"amount_paid"`
	TableID    *int64     `json:"table_id"`
	Floor      *string    `json:"floor"`
	Lines      []CartLine `json:"lines"`
}

// CartLine is one pad cart entry feeding a submission line.
type CartLine struct {
	ProductID         int64   `json:"product_id"`
	DisplayName       string  `json:"display_name"`
	Qty               float64 `json:"qty"`
	PriceUnit         string  `json:"price_unit"`
	PriceSubtotalIncl string  `json:"price_subtotal_incl"`
	Discount          string  `json:"discount"`
	TaxIDs            []int64 `json:"tax_ids"`
	Note              *string `json:"note"`
}

// SubmissionLine is the wire contract for one line of a kitchen-order
// submission. Field names must match the store exactly.
type SubmissionLine struct {
	Qty               float64 `json:"qty"`
	PriceUnit         string  `json:"price_unit"`
	PriceSubtotal     string  `json:"price_subtotal"`
	PriceSubtotalIncl string  `json:"price_subtotal_incl"`
	Discount          string  `json:"discount"`
	ProductID         int64   `json:"product_id"`
	TaxIDs            []int64 `json:"tax_ids"`
	FullProductName   string  `json:"full_product_name"`
	Name              string  `json:"name"`
	IsCooking         bool    `json:"is_cooking"`
	Note              *string `json:"note"`
}

// Submission is the normalized kitchen-order submission payload. Like
// SubmissionLine this is a wire contract with the orders service.
type Submission struct {
	PosReference string           `json:"pos_reference"`
	SessionID    int64            `json:"session_id"`
	AmountTotal  string           `json:"amount_total"`
	AmountPaid   string           `json:"amount_paid"`
	AmountReturn string           `json:"amount_return"`
	AmountTax    string           `json:"amount_tax"`
	Lines        []SubmissionLine `json:"lines"`
	IsCooking    bool             `json:"is_cooking"`
	OrderStatus  Stage            `json:"order_status"`
	CompanyID    int64            `json:"company_id"`
	Hour         int32            `json:"hour"`
	Minutes      int32            `json:"minutes"`
	TableID      *int64           `json:"table_id"`
	Floor        *string          `json:"floor"`
	ConfigID     int64            `json:"config_id"`
}

// BuildSubmission normalizes a pad order into a submission payload.
// Pure transformation: per line, price_subtotal is qty * price_unit and
// the order totals aggregate the tax-inclusive line subtotals. Submitted
// orders always start in the draft stage with is_cooking set.
func BuildSubmission(order *CurrentOrder) *Submission {
	lines := make([]SubmissionLine, 0, len(order.Lines))
	total := decimal.Zero
	untaxed := decimal.Zero

	for _, l := range order.Lines {
		unit, _ := decimal.NewFromString(l.PriceUnit)
		subtotal := unit.Mul(decimal.NewFromFloat(l.Qty))
		subtotalIncl, err := decimal.NewFromString(l.PriceSubtotalIncl)
		if err != nil {
			subtotalIncl = subtotal
		}
		total = total.Add(subtotalIncl)
		untaxed = untaxed.Add(subtotal)

		lines = append(lines, SubmissionLine{
			Qty:               l.Qty,
			PriceUnit:         l.PriceUnit,
			PriceSubtotal:     subtotal.StringFixed(2),
			PriceSubtotalIncl: subtotalIncl.StringFixed(2),
			Discount:          l.Discount,
			ProductID:         l.ProductID,
			TaxIDs:            l.TaxIDs,
			FullProductName:   l.DisplayName,
			Name:              l.DisplayName,
			IsCooking:         true,
			Note:              l.Note,
		})
	}

	paid, _ := decimal.NewFromString(order.AmountPaid)
	change := decimal.Zero
	if paid.GreaterThan(total) {
		change = paid.Sub(total)
	}

	return &Submission{
		PosReference: order.Name,
		SessionID:    order.SessionID,
		AmountTotal:  total.StringFixed(2),
		AmountPaid:   order.AmountPaid,
		AmountReturn: change.StringFixed(2),
		AmountTax:    total.Sub(untaxed).StringFixed(2),
		Lines:        lines,
		IsCooking:    true,
		OrderStatus:  StageDraft,
		CompanyID:    order.CompanyID,
		Hour:         int32(order.DateOrder.Hour()),
		Minutes:      int32(order.DateOrder.Minute()),
		TableID:      order.TableID,
		Floor:        order.Floor,
		ConfigID:     order.ConfigID,
	}
}
