package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoffMs  = 500

	// maxRetryDelay caps both exponential backoff and server-sent Retry-After.
	maxRetryDelay = 10 * time.Second
)

// doRequestWithRetry sends a bodiless request, retrying transport errors,
// 429 and 5xx with exponential backoff. Other responses are returned as is.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}
	base := c.baseBackoff
	if base <= 0 {
		base = defaultBackoffMs * time.Millisecond
	}

	ctx := req.Context()
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("spotify adapter: request canceled: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		wait, retryable := shouldRetry(resp, err)
		if !retryable {
			return resp, err
		}

		lastErr = err
		if resp != nil {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			drain(resp)
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("spotify adapter: request failed after %d attempts: %w", attempts, lastErr)
		}

		if wait <= 0 {
			wait = backoffDelay(base, attempt)
		}
		c.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_retries", attempts).
			Str("path", req.URL.Path).
			Dur("wait", wait).
			Msg("spotify adapter: retrying request")

		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// backoffDelay doubles base for every attempt after the first, up to maxRetryDelay.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	switch {
	case err != nil:
		return 0, true
	case resp == nil:
		return 0, false
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return parseRetryAfter(resp), true
	default:
		return 0, false
	}
}

// parseRetryAfter reads Retry-After as seconds or an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else if when, err := http.ParseTime(raw); err == nil {
		d = time.Until(when)
	}
	if d <= 0 {
		return 0
	}
	return min(d, maxRetryDelay)
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify adapter: request canceled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
