package quotations

import (
	"fmt"

	"github.com/danielharo/rentably-backend/pkg/enums"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
)

// Action is one operation attempted against a quotation.
type Action string

const (
	ActionAddItem           Action = "add_item"
	ActionUpdateItem        Action = "update_item"
	ActionRemoveItem        Action = "remove_item"
	ActionSend              Action = "send"
	ActionApplyCoupon       Action = "apply_coupon"
	ActionRemoveCoupon      Action = "remove_coupon"
	ActionSetDeliveryCharge Action = "set_delivery_charge"
	ActionCreatePaymentLink Action = "create_payment_link"
	ActionConfirm           Action = "confirm"
	ActionCancel            Action = "cancel"
)

// transitions is the single authority on which actions are legal in which
// status and what status results. Absent pairs are rejected.
var transitions = map[enums.QuotationStatus]map[Action]enums.QuotationStatus{
	enums.QuotationStatusDraft: {
		ActionAddItem:    enums.QuotationStatusDraft,
		ActionUpdateItem: enums.QuotationStatusDraft,
		ActionRemoveItem: enums.QuotationStatusDraft,
		ActionSend:       enums.QuotationStatusSent,
		ActionCancel:     enums.QuotationStatusCancelled,
	},
	enums.QuotationStatusSent: {
		ActionApplyCoupon:       enums.QuotationStatusSent,
		ActionRemoveCoupon:      enums.QuotationStatusSent,
		ActionSetDeliveryCharge: enums.QuotationStatusSent,
		ActionCreatePaymentLink: enums.QuotationStatusSent,
		ActionConfirm:           enums.QuotationStatusConfirmed,
		ActionCancel:            enums.QuotationStatusCancelled,
	},
}

// nextStatus resolves the transition table for (current, action).
func nextStatus(current enums.QuotationStatus, action Action) (enums.QuotationStatus, error) {
	if allowed, ok := transitions[current]; ok {
		if next, ok := allowed[action]; ok {
			return next, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot %s a quotation in status %s", action, current))
}
