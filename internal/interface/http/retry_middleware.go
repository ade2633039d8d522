package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/urban-heat-advisor/internal/infra/config"
)

// Multipart uploads are excluded by path; JSON bodies above this are not replayed.
const maxReplayBody = 1 << 20

var errReplayBodyTooLarge = errors.New("request body too large to replay")

// transientStatuses are the responses a second attempt can plausibly fix.
var transientStatuses = map[int]struct{}{
	http.StatusBadGateway:         {},
	http.StatusServiceUnavailable: {},
	http.StatusGatewayTimeout:     {},
}

type retryPolicy struct {
	attempts int
	backoff  time.Duration
	skip     map[string]struct{}
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// withRetry replays POST requests whose response was transient, buffering each
// attempt so the client only ever sees the final one.
func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	policy := &retryPolicy{
		attempts: cfg.MaxAttempts,
		backoff:  cfg.BaseBackoff,
		skip:     make(map[string]struct{}, len(cfg.Exclude)),
		logger:   logger,
		sleep:    sleepContext,
	}
	for _, path := range cfg.Exclude {
		policy.skip[path] = struct{}{}
	}
	return policy.wrap(next)
}

func (p *retryPolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, skip := p.skip[r.URL.Path]; skip || r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		body, err := bufferBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errReplayBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		var resp *bufferedResponse
		for attempt := 1; attempt <= p.attempts; attempt++ {
			if attempt > 1 {
				if err := p.sleep(r.Context(), p.delay(attempt)); err != nil {
					break
				}
				p.logger.Warn("retrying request after transient failure", "path", r.URL.Path, "status", resp.status, "attempt", attempt)
			}
			resp = newBufferedResponse()
			replay := r.Clone(r.Context())
			replay.Body = io.NopCloser(bytes.NewReader(body))
			replay.ContentLength = int64(len(body))
			next.ServeHTTP(resp, replay)
			if _, transient := transientStatuses[resp.status]; !transient {
				break
			}
		}
		resp.flushTo(w)
	})
}

// delay doubles the base backoff for every attempt after the second.
func (p *retryPolicy) delay(attempt int) time.Duration {
	return p.backoff << (attempt - 2)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxReplayBody {
		return nil, errReplayBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until the retry loop settles.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	sealed bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.sealed = true
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.sealed {
		return
	}
	b.status = status
	b.sealed = true
}

// Flush is a no-op; gin checks for http.Flusher.
func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for key, values := range b.header {
		dst[key] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
