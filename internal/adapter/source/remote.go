package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

// RemoteSource fetches tables over HTTP from <base>/<scenario dir>/<table file>.
// Requests are never retried.
type RemoteSource struct {
	baseURL    string
	httpClient *resty.Client
}

// NewRemoteSource creates a source reading from baseURL.
func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	base := strings.TrimSuffix(baseURL, "/")

	client := resty.New().
		SetBaseURL(base).
		SetHeader("Accept", "text/csv").
		SetRetryCount(0).
		SetTimeout(timeout)

	return &RemoteSource{baseURL: base, httpClient: client}
}

// Open downloads one table.
func (s *RemoteSource) Open(ctx context.Context, scenario domain.Scenario, table domain.TableName) (io.ReadCloser, error) {
	path := "/" + url.PathEscape(scenario.Dir) + "/" + url.PathEscape(table.File())

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s%s: %w", domain.ErrDataUnavailable, s.baseURL, path, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s%s: status %d", domain.ErrDataUnavailable, s.baseURL, path, resp.StatusCode())
	}

	return io.NopCloser(bytes.NewReader(resp.Body())), nil
}

func (s *RemoteSource) String() string {
	return s.baseURL
}
