// Package errs defines the error taxonomy shared across the pipeline and
// delivery engine, and the small helper that turns a wrapped error into the
// machine-readable kind string the HTTP surfaces report as {"error": kind}.
package errs

import "errors"

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindConfigMissing       Kind = "config_missing"
	KindStoreUnavailable    Kind = "store_unavailable"
	KindValidationRejected  Kind = "validation_rejected"
	KindExternalTimeout     Kind = "external_http_timeout"
	KindExternalStatus      Kind = "external_http_status"
	KindSendRejected        Kind = "send_rejected"
	KindSignatureInvalid    Kind = "signature_invalid"
	KindIdempotencyConflict Kind = "idempotency_conflict"
	KindCapReached          Kind = "cap_reached"
	KindClientInactive      Kind = "client_inactive"
	KindPlanUnknown         Kind = "plan_unknown"
	KindUnknown             Kind = "internal"
)

// classified pairs a sentinel error with its Kind so wrapped instances
// (via fmt.Errorf("...: %w", Err...)) still resolve with errors.Is.
type classified struct {
	kind Kind
	msg  string
}

func (c *classified) Error() string { return c.msg }

func newErr(kind Kind, msg string) error {
	return &classified{kind: kind, msg: msg}
}

// Sentinel errors. Wrap these with fmt.Errorf("context: %w", ErrX) to add
// detail without losing the classification Kind() recovers.
var (
	ErrConfigMissing       = newErr(KindConfigMissing, "required configuration missing")
	ErrStoreUnavailable    = newErr(KindStoreUnavailable, "store unavailable")
	ErrExternalTimeout     = newErr(KindExternalTimeout, "external call timed out")
	ErrExternalStatus      = newErr(KindExternalStatus, "external call returned an error status")
	ErrSendRejected        = newErr(KindSendRejected, "sender rejected the message")
	ErrSignatureInvalid    = newErr(KindSignatureInvalid, "webhook signature invalid")
	ErrIdempotencyConflict = newErr(KindIdempotencyConflict, "delivery already recorded")
	ErrCapReached          = newErr(KindCapReached, "delivery cap reached")
	ErrClientInactive      = newErr(KindClientInactive, "client is not active")
	ErrPlanUnknown         = newErr(KindPlanUnknown, "subscription plan unknown")
)

// KindOf classifies err against the sentinel taxonomy above. Unrecognized
// errors classify as KindUnknown rather than panicking — callers use this
// for JSON error responses, not control flow.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{
		ErrConfigMissing, ErrStoreUnavailable, ErrExternalTimeout, ErrExternalStatus,
		ErrSendRejected, ErrSignatureInvalid, ErrIdempotencyConflict, ErrCapReached,
		ErrClientInactive, ErrPlanUnknown,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.(*classified).kind
		}
	}
	return KindUnknown
}

// StatusFor returns the HTTP status code conventionally paired with a kind,
// per spec.md §7: 400 invalid body, 404 not found, 500 internal, 403 auth.
func StatusFor(kind Kind) int {
	switch kind {
	case KindSignatureInvalid:
		return 403
	case KindValidationRejected:
		return 400
	case KindStoreUnavailable, KindExternalTimeout, KindExternalStatus, KindUnknown:
		return 500
	default:
		return 400
	}
}
