// ABOUTME: This file classifies errors for retry decisions
// ABOUTME: Distinguishes between temporary and permanent errors for resilient processing
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryableError determines if an error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// コンテキストエラーは基本的にリトライ不可
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Err != nil {
			if errno, ok := opErr.Err.(syscall.Errno); ok {
				return errno == syscall.ECONNREFUSED ||
					errno == syscall.ECONNRESET ||
					errno == syscall.ETIMEDOUT
			}
		}
		if opErr.Temporary() || opErr.Timeout() {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || netErr.Temporary()
	}

	if httpErr := extractHTTPError(err); httpErr != nil {
		return isRetryableHTTPStatus(httpErr.StatusCode)
	}

	// Anything unclassified is treated as permanent.
	return false
}

// IsBlockStatus reports whether a status code indicates rate limiting or an
// anti-bot block. These trigger a proxy rotation in addition to the retry.
func IsBlockStatus(status int) bool {
	switch status {
	case 403, 429, 502, 503:
		return true
	default:
		return false
	}
}

// IsPermanentStatus reports whether a status code makes retrying pointless.
func IsPermanentStatus(status int) bool {
	return status == 400 || status == 404
}

// StatusCode extracts the HTTP status from an error chain, 0 if none.
func StatusCode(err error) int {
	if httpErr := extractHTTPError(err); httpErr != nil {
		return httpErr.StatusCode
	}
	return 0
}

func extractHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return nil
}

func isRetryableHTTPStatus(status int) bool {
	switch {
	case IsPermanentStatus(status):
		return false
	case status >= 500 && status <= 599:
		return true
	case status == 408: // Request Timeout
		return true
	case status == 429: // Too Many Requests
		return true
	case status == 403: // blocked; retried under a fresh proxy
		return true
	default:
		return false
	}
}
