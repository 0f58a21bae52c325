package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielharo/rentably-backend/pkg/logger"
)

type fakeExpirer struct {
	cutoff  time.Time
	expired int
	err     error
}

func (f *fakeExpirer) ExpireStaleSent(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.expired, f.err
}

func TestQuotationTTLJobUsesConfiguredTTL(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{expired: 3}
	jobIface, err := NewQuotationTTLJob(QuotationTTLJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Quotations: expirer,
		SentTTL:    72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewQuotationTTLJob: %v", err)
	}
	job, ok := jobIface.(*quotationTTLJob)
	if !ok {
		t.Fatalf("expected quotationTTLJob, got %T", jobIface)
	}
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-72 * time.Hour)
	if !expirer.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, expirer.cutoff)
	}
}

func TestQuotationTTLJobDefaultsTTL(t *testing.T) {
	jobIface, err := NewQuotationTTLJob(QuotationTTLJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Quotations: &fakeExpirer{},
	})
	if err != nil {
		t.Fatalf("NewQuotationTTLJob: %v", err)
	}
	job := jobIface.(*quotationTTLJob)
	if job.ttl != defaultQuotationSentTTL {
		t.Fatalf("expected default TTL, got %s", job.ttl)
	}
}

func TestQuotationTTLJobPropagatesErrors(t *testing.T) {
	jobIface, err := NewQuotationTTLJob(QuotationTTLJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Quotations: &fakeExpirer{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("NewQuotationTTLJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing expirer")
	}
}

func TestQuotationTTLJobRequiresDependencies(t *testing.T) {
	if _, err := NewQuotationTTLJob(QuotationTTLJobParams{Quotations: &fakeExpirer{}}); err == nil {
		t.Fatal("expected error without logger")
	}
	if _, err := NewQuotationTTLJob(QuotationTTLJobParams{Logger: logger.New(logger.Options{ServiceName: "test"})}); err == nil {
		t.Fatal("expected error without expirer")
	}
}
