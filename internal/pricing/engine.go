package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/danielharo/rentably-backend/pkg/db/models"
	"github.com/danielharo/rentably-backend/pkg/enums"
)

// LineItem is the pricing view of one quotation or order row.
type LineItem struct {
	Quantity       int
	UnitPriceCents int64
}

// CouponTerms is the discount definition applied to a subtotal. Flat coupons
// set AmountCents; percentage coupons set Percent and optionally a cap.
type CouponTerms struct {
	Type             enums.CouponType
	AmountCents      int64
	Percent          decimal.Decimal
	MaxDiscountCents *int64
}

// Totals is the computed money breakdown for a quotation or order.
type Totals struct {
	SubtotalCents       int64
	DiscountCents       int64
	DeliveryChargeCents int64
	TotalCents          int64
}

// ComputeTotals derives subtotal, discount, and total from line items, an
// optional coupon, and a delivery charge. Pure: identical inputs always
// produce identical totals, so invoice amounts can be re-derived later.
func ComputeTotals(items []LineItem, coupon *CouponTerms, deliveryChargeCents int64) Totals {
	if deliveryChargeCents < 0 {
		deliveryChargeCents = 0
	}

	var subtotal int64
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPriceCents <= 0 {
			continue
		}
		subtotal += int64(item.Quantity) * item.UnitPriceCents
	}

	discount := discountFor(coupon, subtotal)

	discounted := subtotal - discount
	if discounted < 0 {
		discounted = 0
	}

	return Totals{
		SubtotalCents:       subtotal,
		DiscountCents:       discount,
		DeliveryChargeCents: deliveryChargeCents,
		TotalCents:          discounted + deliveryChargeCents,
	}
}

func discountFor(coupon *CouponTerms, subtotalCents int64) int64 {
	if coupon == nil || subtotalCents <= 0 {
		return 0
	}

	var discount int64
	switch coupon.Type {
	case enums.CouponTypeFlat:
		discount = coupon.AmountCents
	case enums.CouponTypePercentage:
		discount = decimal.NewFromInt(subtotalCents).
			Mul(coupon.Percent).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
		if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
			discount = *coupon.MaxDiscountCents
		}
	default:
		return 0
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotalCents {
		return subtotalCents
	}
	return discount
}

// TermsFromCoupon adapts a persisted coupon row into pricing terms.
func TermsFromCoupon(coupon *models.Coupon) *CouponTerms {
	if coupon == nil {
		return nil
	}
	terms := &CouponTerms{
		Type:             coupon.Type,
		MaxDiscountCents: coupon.MaxDiscountCents,
	}
	if coupon.AmountCents != nil {
		terms.AmountCents = *coupon.AmountCents
	}
	if coupon.Percent != nil {
		terms.Percent = *coupon.Percent
	}
	return terms
}

// QuotationLineItems adapts quotation rows into pricing line items.
func QuotationLineItems(items []models.QuotationItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, LineItem{Quantity: item.Quantity, UnitPriceCents: item.UnitPriceCents})
	}
	return out
}

// OrderLineItems adapts order snapshot rows into pricing line items.
func OrderLineItems(items []models.OrderItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, LineItem{Quantity: item.Quantity, UnitPriceCents: item.UnitPriceCents})
	}
	return out
}
