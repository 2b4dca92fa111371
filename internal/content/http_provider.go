package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skillforge/skillforge-backend/internal/domain"
	"github.com/skillforge/skillforge-backend/internal/platform/logger"
)

// HTTPProvider talks JSON over HTTP to the content/exercise service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewHTTPProvider(baseURL string, baseLog *logger.Logger) (*HTTPProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("missing content provider base URL")
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     baseLog.With("client", "ContentProvider"),
	}, nil
}

type fetchResponse struct {
	Exercises []domain.Exercise `json:"exercises"`
}

func (p *HTTPProvider) FetchExercises(ctx context.Context, req Request) ([]domain.Exercise, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal exercise request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/exercises/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build exercise request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("content provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode exercise response: %w", err)
	}
	return out.Exercises, nil
}
