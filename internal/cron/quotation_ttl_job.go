package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/danielharo/rentably-backend/pkg/logger"
)

const defaultQuotationSentTTL = 14 * 24 * time.Hour

// quotationExpirer cancels SENT quotations that never converted.
type quotationExpirer interface {
	ExpireStaleSent(ctx context.Context, cutoff time.Time) (int, error)
}

// QuotationTTLJobParams configure the quotation expiry job.
type QuotationTTLJobParams struct {
	Logger     *logger.Logger
	Quotations quotationExpirer
	SentTTL    time.Duration
}

// NewQuotationTTLJob builds the cron job that cancels stale SENT quotations.
func NewQuotationTTLJob(params QuotationTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Quotations == nil {
		return nil, fmt.Errorf("quotation expirer required")
	}
	ttl := params.SentTTL
	if ttl <= 0 {
		ttl = defaultQuotationSentTTL
	}
	return &quotationTTLJob{
		logg:       params.Logger,
		quotations: params.Quotations,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

type quotationTTLJob struct {
	logg       *logger.Logger
	quotations quotationExpirer
	ttl        time.Duration
	now        func() time.Time
}

func (j *quotationTTLJob) Name() string { return "quotation-ttl" }

func (j *quotationTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.quotations.ExpireStaleSent(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire stale quotations: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"count":  expired,
		"cutoff": cutoff,
	})
	j.logg.Info(logCtx, "quotation expiry loop complete")
	return nil
}
