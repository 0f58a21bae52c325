package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/enums"
)

func TestComputeTotalsFlatCoupon(t *testing.T) {
	items := []LineItem{{Quantity: 2, UnitPriceCents: 500}}
	coupon := &CouponTerms{Type: enums.CouponTypeFlat, AmountCents: 300}

	got := ComputeTotals(items, coupon, 100)

	if got.SubtotalCents != 1000 {
		t.Fatalf("expected subtotal 1000, got %d", got.SubtotalCents)
	}
	if got.DiscountCents != 300 {
		t.Fatalf("expected discount 300, got %d", got.DiscountCents)
	}
	if got.TotalCents != 800 {
		t.Fatalf("expected total 800, got %d", got.TotalCents)
	}
}

func TestComputeTotalsPercentageCouponRespectsCap(t *testing.T) {
	items := []LineItem{{Quantity: 1, UnitPriceCents: 1000}}
	cap := int64(200)
	coupon := &CouponTerms{
		Type:             enums.CouponTypePercentage,
		Percent:          decimal.NewFromInt(50),
		MaxDiscountCents: &cap,
	}

	got := ComputeTotals(items, coupon, 0)

	if got.DiscountCents != 200 {
		t.Fatalf("expected capped discount 200, got %d", got.DiscountCents)
	}
	if got.TotalCents != 800 {
		t.Fatalf("expected total 800, got %d", got.TotalCents)
	}
}

func TestComputeTotalsPercentageCouponWithoutCap(t *testing.T) {
	items := []LineItem{{Quantity: 3, UnitPriceCents: 400}}
	coupon := &CouponTerms{Type: enums.CouponTypePercentage, Percent: decimal.NewFromInt(25)}

	got := ComputeTotals(items, coupon, 50)

	if got.DiscountCents != 300 {
		t.Fatalf("expected discount 300, got %d", got.DiscountCents)
	}
	if got.TotalCents != 950 {
		t.Fatalf("expected total 950, got %d", got.TotalCents)
	}
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	got := ComputeTotals(nil, &CouponTerms{Type: enums.CouponTypeFlat, AmountCents: 500}, 150)

	if got.SubtotalCents != 0 {
		t.Fatalf("expected subtotal 0, got %d", got.SubtotalCents)
	}
	if got.DiscountCents != 0 {
		t.Fatalf("expected no discount on empty subtotal, got %d", got.DiscountCents)
	}
	if got.TotalCents != 150 {
		t.Fatalf("expected total to equal delivery charge, got %d", got.TotalCents)
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []LineItem{
		{Quantity: 2, UnitPriceCents: 500},
		{Quantity: 1, UnitPriceCents: 1999},
	}
	cap := int64(700)
	coupon := &CouponTerms{
		Type:             enums.CouponTypePercentage,
		Percent:          decimal.NewFromFloat(33.33),
		MaxDiscountCents: &cap,
	}

	first := ComputeTotals(items, coupon, 250)
	second := ComputeTotals(items, coupon, 250)

	if first != second {
		t.Fatalf("expected identical totals, got %+v and %+v", first, second)
	}
}

func TestComputeTotalsDiscountNeverExceedsSubtotal(t *testing.T) {
	cap := int64(100000)
	table := []struct {
		name   string
		items  []LineItem
		coupon *CouponTerms
	}{
		{
			name:   "flat larger than subtotal",
			items:  []LineItem{{Quantity: 1, UnitPriceCents: 300}},
			coupon: &CouponTerms{Type: enums.CouponTypeFlat, AmountCents: 5000},
		},
		{
			name:   "negative flat",
			items:  []LineItem{{Quantity: 2, UnitPriceCents: 250}},
			coupon: &CouponTerms{Type: enums.CouponTypeFlat, AmountCents: -100},
		},
		{
			name:   "percentage over 100",
			items:  []LineItem{{Quantity: 4, UnitPriceCents: 125}},
			coupon: &CouponTerms{Type: enums.CouponTypePercentage, Percent: decimal.NewFromInt(150), MaxDiscountCents: &cap},
		},
		{
			name:   "no coupon",
			items:  []LineItem{{Quantity: 1, UnitPriceCents: 999}},
			coupon: nil,
		},
	}

	for _, tt := range table {
		got := ComputeTotals(tt.items, tt.coupon, 0)
		if got.DiscountCents < 0 || got.DiscountCents > got.SubtotalCents {
			t.Fatalf("%s: discount %d out of [0, %d]", tt.name, got.DiscountCents, got.SubtotalCents)
		}
	}
}

func TestComputeTotalsFloorIsDeliveryCharge(t *testing.T) {
	items := []LineItem{{Quantity: 1, UnitPriceCents: 100}}
	coupon := &CouponTerms{Type: enums.CouponTypeFlat, AmountCents: 100000}

	got := ComputeTotals(items, coupon, 75)

	if got.TotalCents != 75 {
		t.Fatalf("expected total floored at delivery charge 75, got %d", got.TotalCents)
	}
}

func TestComputeTotalsSkipsInvalidLines(t *testing.T) {
	items := []LineItem{
		{Quantity: 0, UnitPriceCents: 500},
		{Quantity: 2, UnitPriceCents: -10},
		{Quantity: 3, UnitPriceCents: 200},
	}

	got := ComputeTotals(items, nil, 0)

	if got.SubtotalCents != 600 {
		t.Fatalf("expected subtotal 600, got %d", got.SubtotalCents)
	}
}
