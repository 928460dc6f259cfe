package domain

import "errors"

var (
	// ErrInvalidParameters indicates the caller supplied an unrecognized or
	// incomplete request. Returned before any data access.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidPayload indicates a structurally malformed event payload.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUnauthorized indicates a missing or unverifiable credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller lacking the required
	// capability.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDataFetch wraps an underlying data-store failure that aborted the
	// current operation.
	ErrDataFetch = errors.New("data fetch failed")

	// ErrDelivery wraps an email-provider failure. The provider's raw error
	// text is attached by the wrapping site.
	ErrDelivery = errors.New("delivery failed")
)
