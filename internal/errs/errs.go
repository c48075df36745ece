// Package errs defines the sentinel error taxonomy shared across the
// ingestion façade, dispatcher, and HTTP layer.
package errs

import "errors"

var (
	// ErrValidation marks a request that failed structural validation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a lookup against an id that doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited marks a submission rejected by the rate limiter.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrDuplicateEvent marks a submission the idempotency gate has already
	// seen.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrTransientInfra marks a failure in our own infrastructure (store,
	// queue, cache) that is expected to clear on retry.
	ErrTransientInfra = errors.New("transient infrastructure failure")

	// ErrTransientProvider marks a channel-provider failure that is expected
	// to clear on retry (timeouts, 5xx, throttling).
	ErrTransientProvider = errors.New("transient provider failure")

	// ErrPermanentProvider marks a channel-provider failure that retrying
	// will never fix (invalid recipient, rejected content).
	ErrPermanentProvider = errors.New("permanent provider failure")

	// ErrHandlerDeclined marks a channel handler refusing to process a
	// notification it was never meant to handle.
	ErrHandlerDeclined = errors.New("handler declined notification")

	// ErrVersionConflict marks an optimistic-concurrency failure on the
	// notification row's version column.
	ErrVersionConflict = errors.New("version conflict")
)
