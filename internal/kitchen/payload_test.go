package kitchen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *CurrentOrder {
	note := "no onions"
	return &CurrentOrder{
		ID:         11,
		Name:       "Order 00042-001-0001",
		SessionID:  3,
		CompanyID:  1,
		ConfigID:   7,
		DateOrder:  time.Date(2026, 5, 4, 18, 45, 0, 0, time.UTC),
		AmountPaid: "0.00",
		Lines: []CartLine{
			{
				ProductID:         101,
				DisplayName:       "Margherita",
				Qty:               2,
				PriceUnit:         "5.00",
				PriceSubtotalIncl: "11.00",
				Discount:          "0.00",
				TaxIDs:            []int64{4},
				Note:              &note,
			},
			{
				ProductID:         102,
				DisplayName:       "Lemonade",
				Qty:               3,
				PriceUnit:         "2.50",
				PriceSubtotalIncl: "8.25",
				Discount:          "0.00",
				TaxIDs:            []int64{4},
			},
		},
	}
}

func TestBuildSubmissionLines(t *testing.T) {
	sub := BuildSubmission(testOrder())

	require.Len(t, sub.Lines, 2)

	// price_subtotal is always qty * price_unit
	assert.Equal(t, "10.00", sub.Lines[0].PriceSubtotal)
	assert.Equal(t, "7.50", sub.Lines[1].PriceSubtotal)

	assert.Equal(t, "11.00", sub.Lines[0].PriceSubtotalIncl)
	assert.Equal(t, "Margherita", sub.Lines[0].FullProductName)
	assert.Equal(t, "Margherita", sub.Lines[0].Name)
	assert.Equal(t, []int64{4}, sub.Lines[0].TaxIDs)
	require.NotNil(t, sub.Lines[0].Note)
	assert.Equal(t, "no onions", *sub.Lines[0].Note)

	for _, l := range sub.Lines {
		assert.True(t, l.IsCooking)
	}
}

func TestBuildSubmissionTotals(t *testing.T) {
	sub := BuildSubmission(testOrder())

	assert.Equal(t, "19.25", sub.AmountTotal)
	// tax is the gap between tax-inclusive and plain subtotals
	assert.Equal(t, "1.75", sub.AmountTax)
	assert.Equal(t, "0.00", sub.AmountPaid)
	assert.Equal(t, "0.00", sub.AmountReturn)
}

func TestBuildSubmissionOrderFields(t *testing.T) {
	order := testOrder()
	table := int64(5)
	floor := "Terrace"
	order.TableID = &table
	order.Floor = &floor

	sub := BuildSubmission(order)

	assert.Equal(t, "Order 00042-001-0001", sub.PosReference)
	assert.Equal(t, int64(3), sub.SessionID)
	assert.Equal(t, int64(1), sub.CompanyID)
	assert.Equal(t, int64(7), sub.ConfigID)
	assert.Equal(t, StageDraft, sub.OrderStatus)
	assert.True(t, sub.IsCooking)
	assert.Equal(t, int32(18), sub.Hour)
	assert.Equal(t, int32(45), sub.Minutes)
	require.NotNil(t, sub.TableID)
	assert.Equal(t, int64(5), *sub.TableID)
	require.NotNil(t, sub.Floor)
	assert.Equal(t, "Terrace", *sub.Floor)
}

func TestBuildSubmissionWalkInOrderHasNoTable(t *testing.T) {
	sub := BuildSubmission(testOrder())

	assert.Nil(t, sub.TableID)
	assert.Nil(t, sub.Floor)
}

func TestBuildSubmissionChange(t *testing.T) {
	order := testOrder()
	order.AmountPaid = "20.00"

	sub := BuildSubmission(order)

	assert.Equal(t, "20.00", sub.AmountPaid)
	assert.Equal(t, "0.75", sub.AmountReturn)
}

func TestBuildSubmissionEmptyOrder(t *testing.T) {
	order := testOrder()
	order.Lines = nil

	sub := BuildSubmission(order)

	assert.Empty(t, sub.Lines)
	assert.Equal(t, "0.00", sub.AmountTotal)
}
