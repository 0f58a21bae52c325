package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/danielharo/rentably-backend/pkg/config"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
)

var (
	errAPIKeyRequired = errors.New("sendgrid api key is required")
	errFromRequired   = errors.New("sendgrid from address is required")
)

// Message is one outbound transactional email.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer sends transactional email. The single implementation is SendGrid;
// tests substitute a stub.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Client is the SendGrid-backed Mailer.
type Client struct {
	sender    sender
	fromEmail string
	fromName  string
	logger    *logger.Logger
}

// NewClient validates the SendGrid credentials and returns a Mailer.
func NewClient(cfg config.SendgridConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errFromRequired
	}
	return &Client{
		sender:    sendgrid.NewSendClient(apiKey),
		fromEmail: from,
		fromName:  strings.TrimSpace(cfg.FromName),
		logger:    logg,
	}, nil
}

// Send delivers one email and maps transport failures to dependency errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	from := mail.NewEmail(c.fromName, c.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := c.sender.SendWithContext(ctx, email)
	if err != nil {
		c.logger.Error(ctx, "sendgrid send failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
		c.logger.Error(ctx, "sendgrid send rejected", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}

	ctx = c.logger.WithField(ctx, "to", "[REDACTED]")
	c.logger.Info(ctx, "email sent")
	return nil
}
