package model

import (
	"errors"
	"fmt"
)

// PlatformError carries the upstream context every adapter failure needs for
// diagnostics: which platform, what HTTP status, and the raw response body.
// Permanent errors (malformed responses, 4xx auth/bad-request) must not be
// retried; everything else is fair game for the caller's backoff loop.
type PlatformError struct {
	Op        string // auth_exchange | publish_init | publish_status | insights_fetch
	Platform  string
	Status    int
	Body      string
	Permanent bool
	Err       error
}

func (e *PlatformError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s failed: status=%d body=%s", e.Platform, e.Op, e.Status, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Platform, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Platform, e.Op)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewAuthExchangeError reports a failed authorization-code or token-upgrade call.
func NewAuthExchangeError(platform string, status int, body string, err error) *PlatformError {
	return &PlatformError{Op: "auth_exchange", Platform: platform, Status: status, Body: body, Permanent: status >= 400 && status < 500, Err: err}
}

func NewPublishInitError(platform string, status int, body string, err error) *PlatformError {
	return &PlatformError{Op: "publish_init", Platform: platform, Status: status, Body: body, Permanent: status >= 400 && status < 500 && status != 429, Err: err}
}

func NewPublishStatusError(platform string, status int, body string, err error) *PlatformError {
	return &PlatformError{Op: "publish_status", Platform: platform, Status: status, Body: body, Permanent: false, Err: err}
}

func NewInsightsFetchError(platform string, status int, body string, err error) *PlatformError {
	return &PlatformError{Op: "insights_fetch", Platform: platform, Status: status, Body: body, Permanent: status >= 400 && status < 500 && status != 429, Err: err}
}

// NewMalformedResponseError marks a response the platform contract says cannot
// happen; never retried.
func NewMalformedResponseError(op, platform string, err error) *PlatformError {
	return &PlatformError{Op: op, Platform: platform, Permanent: true, Err: err}
}

// IsRetryable reports whether an error may succeed on a later attempt.
func IsRetryable(err error) bool {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return !pe.Permanent
	}
	// Unknown errors (timeouts, connection resets) are treated as transient.
	return true
}

// CredentialExpiredError signals the stored token is expired and no refresh
// path exists for the platform; the user must reconnect the account.
type CredentialExpiredError struct {
	Platform string
	UserID   string
	Reason   string // refresh_failed | reauthorize_required
}

func (e *CredentialExpiredError) Error() string {
	return fmt.Sprintf("%s credential expired for user %s (%s)", e.Platform, e.UserID, e.Reason)
}

// NotConnectedError signals no SocialAccount exists for (user, platform).
type NotConnectedError struct {
	Platform string
	UserID   string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("no %s account connected for user %s", e.Platform, e.UserID)
}

// StoreError wraps record-store failures so callers can tell persistence
// trouble apart from platform trouble.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s failed: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
