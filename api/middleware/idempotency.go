package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielharo/rentably-backend/api/responses"
	pkgerrors "github.com/danielharo/rentably-backend/pkg/errors"
	"github.com/danielharo/rentably-backend/pkg/logger"
	pkgredis "github.com/danielharo/rentably-backend/pkg/redis"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// idempotencyRule covers one endpoint. Either exact is set, or prefix and
// suffix bracket a path parameter such as a quotation or order ID.
type idempotencyRule struct {
	method string
	exact  string
	prefix string
	suffix string
	ttl    time.Duration
}

func (rule idempotencyRule) matches(method, path string) bool {
	if rule.method != method {
		return false
	}
	if rule.exact != "" {
		return path == rule.exact
	}
	return strings.HasPrefix(path, rule.prefix) &&
		strings.HasSuffix(path, rule.suffix) &&
		len(path) > len(rule.prefix)+len(rule.suffix)
}

// Endpoints touching money or inventory keep their records for a week;
// everything else ages out after a day.
var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, exact: "/api/v1/auth/register/vendor", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/auth/register/customer", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/vendor/quotations", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, exact: "/api/v1/vendor/coupons", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/items", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/send", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/coupon", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/delivery-charge", ttl: defaultIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/payment-link", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/quotations/", suffix: "/cancel", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/orders/", suffix: "/invoice", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/orders/", suffix: "/return", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/orders/", suffix: "/pickup", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/orders/", suffix: "/deliver", ttl: criticalIdempotencyTTL},
	{method: http.MethodPost, prefix: "/api/v1/vendor/orders/", suffix: "/cancel", ttl: criticalIdempotencyTTL},
}

func routeTTL(method, path string) (time.Duration, bool) {
	for _, rule := range idempotencyRules {
		if rule.matches(method, path) {
			return rule.ttl, true
		}
	}
	return 0, false
}

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

// Idempotency replays stored responses for repeated Idempotency-Key requests
// on payment-adjacent routes and rejects key reuse with a different body.
// Matching happens on the request path rather than the chi route pattern,
// since parent-router middleware runs before the full pattern is known.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, covered := routeTTL(r.Method, r.URL.Path)
			if !covered || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if idemKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(requestScope(r), idemKey)

			stored, err := store.Get(ctx, key)
			if err != nil && !errors.Is(err, redis.Nil) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if stored != "" {
				replayStored(ctx, logg, w, stored, requestHash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			saveRecord(ctx, logg, store, key, ttl, capture, requestHash)
		})
	}
}

// replayStored serves a previously recorded response, or a conflict when the
// same key arrives with a different request body.
func replayStored(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if ct := record.Headers["Content-Type"]; ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func saveRecord(ctx context.Context, logg *logger.Logger, store pkgredis.IdempotencyStore, key string, ttl time.Duration, capture *responseCapture, requestHash string) {
	record := idempotencyRecord{
		Status:      capture.statusOr(http.StatusOK),
		Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
		RequestHash: requestHash,
	}
	if ct := capture.Header().Get("Content-Type"); ct != "" {
		record.Headers = map[string]string{"Content-Type": ct}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		logIdempotencyError(ctx, logg, "marshal idempotency record", err)
		return
	}
	if _, err := store.SetNX(ctx, key, string(payload), ttl); err != nil {
		logIdempotencyError(ctx, logg, "persist idempotency record", err)
	}
}

// requestScope ties records to the authenticated actor so one client cannot
// replay another's responses.
func requestScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		VendorIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusOr(fallback int) int {
	if r.status == 0 {
		return fallback
	}
	return r.status
}

func logIdempotencyError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
