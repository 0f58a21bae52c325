package quotations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielharo/rentably-backend/pkg/db"
	"github.com/danielharo/rentably-backend/pkg/db/models"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/mailer"
	"github.com/danielharo/rentably-backend/pkg/square"
)

// CreatePaymentLink builds a hosted checkout link for a SENT quotation,
// emails it to the customer, and records the send. A link may be sent at
// most once per quotation: a prior log row, or an order already created
// from the quotation, blocks the operation.
//
// The email goes out before the log row is written. If the email fails the
// transaction never starts, no row exists, and the vendor may retry.
func (s *service) CreatePaymentLink(ctx context.Context, actor Actor, id uuid.UUID) (*models.QuotationPaymentLinkLog, error) {
	if err := requireVendorActor(actor); err != nil {
		return nil, err
	}
	quotation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeVendorWrite(actor, quotation); err != nil {
		return nil, err
	}
	if _, err := nextStatus(quotation.Status, ActionCreatePaymentLink); err != nil {
		return nil, err
	}

	hasOrder, err := s.repo.OrderExistsForQuotation(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order existence")
	}
	if hasOrder {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quotation already has an order")
	}

	if _, err := s.repo.FindPaymentLinkLog(ctx, id); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment link already sent for quotation")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment link log")
	}

	totals, err := s.totalsFor(ctx, quotation)
	if err != nil {
		return nil, err
	}
	if totals.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation total must be positive")
	}

	customer, err := s.users.FindByID(ctx, quotation.CustomerID)
	if err != nil {
		return nil, err
	}

	linkCtx, cancel := context.WithTimeout(ctx, s.linkTimeout)
	defer cancel()
	link, err := s.links.CreatePaymentLink(linkCtx, square.PaymentLinkCreateParams{
		Name:        fmt.Sprintf("Rental quotation %s", shortID(quotation.ID)),
		AmountCents: totals.TotalCents,
		ReferenceID: quotation.ID.String(),
		Description: fmt.Sprintf("Rental order payment for quotation %s", quotation.ID),
	})
	if err != nil {
		return nil, err
	}

	err = s.mail.Send(ctx, mailer.Message{
		ToEmail:   customer.Email,
		ToName:    customer.FullName,
		Subject:   "Your rental quotation is ready for payment",
		PlainText: paymentLinkEmailText(customer.FullName, totals.TotalCents, link.URL),
		HTML:      paymentLinkEmailHTML(customer.FullName, totals.TotalCents, link.URL),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send payment link email")
	}

	logRow := &models.QuotationPaymentLinkLog{
		QuotationID:     id,
		PaymentLinkID:   link.ID,
		URL:             link.URL,
		AmountCents:     totals.TotalCents,
		CreatedByUserID: actor.UserID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePaymentLinkLog(ctx, logRow); err != nil {
			if db.IsUniqueViolation(err, "uq_payment_link_logs_quotation_id") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "payment link already sent for quotation")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment link")
		}
		return s.audit.Record(ctx, tx, auditEntry(actor, "quotation.payment_link_sent", id, map[string]any{
			"payment_link_id": link.ID,
			"amount_cents":    totals.TotalCents,
		}))
	})
	if err != nil {
		return nil, err
	}
	return logRow, nil
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}

func paymentLinkEmailText(name string, amountCents int64, url string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour rental quotation is ready. The total due is %s.\n\nPay securely here: %s\n\nThanks,\nThe Rentably team\n",
		name, formatMoney(amountCents), url,
	)
}

func paymentLinkEmailHTML(name string, amountCents int64, url string) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p><p>Your rental quotation is ready. The total due is <strong>%s</strong>.</p><p><a href="%s">Pay securely here</a></p><p>Thanks,<br>The Rentably team</p>`,
		name, formatMoney(amountCents), url,
	)
}

func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
