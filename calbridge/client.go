package calbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// BackendUnavailableError wraps a transport-level failure talking to the
// calendar backend (connection refused or timeout after retries, or a
// non-2xx status, which is not retried) on a read call: Status, Calendars
// or Events.
// The orchestrator maps this to the BACKEND_UNAVAILABLE exit path (spec.md
// §7) rather than treating it as a programming error.
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("calendar backend unavailable during %s: %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// Client talks to the calendar backend's pinned HTTP contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int

	catalogGroup singleflight.Group
}

// NewClient builds a Client against baseURL. A rate limiter throttles
// outbound calls so a runaway decomposition doesn't hammer a local,
// unscaled sidecar process.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		maxRetries: 3,
	}
}

// Status calls GET /status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, &BackendUnavailableError{Op: "GET /status", Err: err}
	}
	return &out, nil
}

// Calendars calls GET /calendars. Concurrent calls within the same process
// are deduped via singleflight since the catalog rarely changes between two
// queries issued a few milliseconds apart.
func (c *Client) Calendars(ctx context.Context) ([]Calendar, error) {
	v, err, _ := c.catalogGroup.Do("calendars", func() (interface{}, error) {
		var out []Calendar
		if err := c.doJSON(ctx, http.MethodGet, "/calendars", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, &BackendUnavailableError{Op: "GET /calendars", Err: err}
	}
	return v.([]Calendar), nil
}

// Events calls GET /events with the given query parameters.
func (c *Client) Events(ctx context.Context, q EventsQuery) ([]Event, error) {
	params := url.Values{}
	params.Set("days", strconv.Itoa(q.Days))
	if q.CalendarID != "" {
		params.Set("calendar_id", q.CalendarID)
	}
	if q.ExcludeHolidays {
		params.Set("exclude_holidays", "true")
	}

	var out []Event
	path := "/events?" + params.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, &BackendUnavailableError{Op: "GET /events", Err: err}
	}
	return out, nil
}

// AddEvent calls POST /add. A non-2xx response (e.g. a non-writable or
// unknown calendar) is returned as-is, not as BackendUnavailableError,
// since the caller must distinguish "rejected" from "unreachable".
func (c *Client) AddEvent(ctx context.Context, req AddEventRequest) (*Event, error) {
	var out Event
	if err := c.doJSON(ctx, http.MethodPost, "/add", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent calls POST /delete?event_id=….
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (*DeleteEventResponse, error) {
	params := url.Values{}
	params.Set("event_id", eventID)

	var out DeleteEventResponse
	path := "/delete?" + params.Encode()
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON issues an HTTP request with JSON body/response, retrying
// transport-level failures with exponential backoff. HTTP-level error
// statuses (4xx/5xx) are surfaced immediately as *HTTPStatusError, not
// retried, since retrying a rejection (e.g. non-writable calendar) would
// never succeed.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.attempt(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		if _, isStatus := err.(*HTTPStatusError); isStatus {
			return err
		}
		lastErr = err

		if attempt == c.maxRetries-1 {
			break
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &HTTPStatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// HTTPStatusError records a non-2xx response from the calendar backend.
type HTTPStatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: backend returned status %d", e.Method, e.Path, e.StatusCode)
}
