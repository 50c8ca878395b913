// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrDuplicateMessage marks an idempotent no-op: the same provider delivery
// was already persisted. Not a true failure.
var ErrDuplicateMessage = errors.New("message already processed")

// ValidationError means the webhook payload shape is malformed. Fatal to the
// whole ingest call; nothing is partially processed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid webhook payload: %s", e.Reason)
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// RoutingNotFoundError means no active business account owns the phone number
// identifier. Per-item: the rest of the batch keeps processing.
type RoutingNotFoundError struct {
	PhoneNumberID string
}

func (e *RoutingNotFoundError) Error() string {
	return fmt.Sprintf("no tenant route for phone_number_id %s", e.PhoneNumberID)
}

func NewRoutingNotFound(phoneNumberID string) error {
	return &RoutingNotFoundError{PhoneNumberID: phoneNumberID}
}

// PersistenceError wraps a failed storage write. Per-item, logged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// CredentialDecryptionError means the stored credential blob could not be
// decrypted. The owning tenant must reconnect; callers must never treat this
// as "tenant has no credential".
type CredentialDecryptionError struct {
	Err error
}

func (e *CredentialDecryptionError) Error() string {
	return fmt.Sprintf("credential decryption failed: %v", e.Err)
}

func (e *CredentialDecryptionError) Unwrap() error { return e.Err }

func NewCredentialDecryptionError(err error) error {
	return &CredentialDecryptionError{Err: err}
}

// AuthorizationError means a tenant tried to use a phone number it does not
// own. Fatal to that send; no provider call is made.
type AuthorizationError struct {
	TenantID      int64
	PhoneNumberID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("tenant %d does not own phone_number_id %s", e.TenantID, e.PhoneNumberID)
}

func NewAuthorizationError(tenantID int64, phoneNumberID string) error {
	return &AuthorizationError{TenantID: tenantID, PhoneNumberID: phoneNumberID}
}

// ProviderAPIError carries the provider's rejection verbatim. Not retried.
type ProviderAPIError struct {
	StatusCode int
	Body       string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider api error: status=%d body=%s", e.StatusCode, e.Body)
}

func NewProviderAPIError(statusCode int, body string) error {
	return &ProviderAPIError{StatusCode: statusCode, Body: body}
}
