package isy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client constants.
const (
	// DefaultTimeout bounds a single REST request when none is configured.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response is read. Large installations
	// produce nodes documents of a few MiB.
	maxBodySize = 16 << 20
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
}

// Client performs authenticated GET requests against an ISY REST interface.
//
// There is no retry: a failed request degrades only that resource for the
// current cycle and the next scheduled cycle tries again.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	httpClient *http.Client
	maxBody    int64

	logger   Logger
	loggerMu sync.RWMutex
}

// NewClient creates a client whose requests time out after timeout.
//
// Parameters:
//   - timeout: Per-request timeout; DefaultTimeout is used when <= 0
//
// Returns:
//   - *Client: Ready for use
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxBody:    maxBodySize,
	}
}

// SetLogger sets a logger for raw response dumps.
// Bodies are logged at debug level only.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// Fetch retrieves one REST resource.
//
// Parameters:
//   - ctx: Context for cancellation
//   - endpoint: Resource to read
//   - conn: ISY address and credentials (HTTP basic auth)
//
// Returns:
//   - []byte: Response body on HTTP 200
//   - error: *FetchError (ErrUnreachable, ErrRemoteRejected or ErrBodyTooLarge)
func (c *Client) Fetch(ctx context.Context, endpoint Endpoint, conn Connection) ([]byte, error) {
	url := conn.URL(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: Unreachable, Endpoint: endpoint, Err: fmt.Errorf("building request: %w", err)}
	}
	req.SetBasicAuth(conn.User, conn.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: Unreachable, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	// One byte over the limit tells a full body from a cut-off one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &FetchError{Kind: Unreachable, Endpoint: endpoint, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &FetchError{Kind: TooLarge, Endpoint: endpoint, Limit: c.maxBody}
	}

	if logger := c.getLogger(); logger != nil {
		logger.Debug("ISY response",
			"endpoint", endpoint.String(),
			"status", resp.StatusCode,
			"body", string(body),
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: RemoteRejected, Endpoint: endpoint, Status: resp.StatusCode, Body: body}
	}

	return body, nil
}
