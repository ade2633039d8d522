package catalogsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/urban-heat-advisor/internal/domain/heatzone"
	apperrors "github.com/yanqian/urban-heat-advisor/pkg/errors"
)

const maxDocumentBytes = 8 << 20

// Loader reads the heat zone reference document from a file path or an http(s) URL.
type Loader struct {
	httpClient *http.Client
}

// NewLoader builds a loader whose remote fetches give up after timeout.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Loader{httpClient: &http.Client{Timeout: timeout}}
}

// Load returns the validated catalog. Every failure carries config_data_error.
func (l *Loader) Load(ctx context.Context, source string) (*heatzone.Catalog, error) {
	source = strings.TrimSpace(source)
	if !isRemote(source) {
		return heatzone.LoadFile(source)
	}
	body, err := l.fetch(ctx, source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigData, "fetch heat zone catalog", err)
	}
	return heatzone.Load(body)
}

func (l *Loader) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("catalog request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("catalog document exceeds %d bytes", maxDocumentBytes)
	}
	return body, nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
