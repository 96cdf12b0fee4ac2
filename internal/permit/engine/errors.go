package engine

import "errors"

var (
	// ErrPermitNotFound is returned when a permit, its detail row or its
	// ownership row cannot be found.
	ErrPermitNotFound = errors.New("permit not found")

	// ErrInvalidPermitType is returned for a permit type id outside the
	// known set.
	ErrInvalidPermitType = errors.New("invalid permit type")

	// ErrActorUnknown is returned when the acting user cannot be
	// resolved to an active account. No write is attempted.
	ErrActorUnknown = errors.New("acting user unknown or inactive")

	// ErrReasonRequired is returned when hold or reject is attempted
	// without a reason.
	ErrReasonRequired = errors.New("reason is required")

	// ErrLocationRequired is returned when issuance has no usable work
	// location to build a permit number from.
	ErrLocationRequired = errors.New("work location is required")

	// ErrValidityNotFuture is returned when a reopen carries a validity
	// end that is not in the future.
	ErrValidityNotFuture = errors.New("validity end must be in the future")

	// ErrDuplicateReopen is returned when the source permit already has
	// a live reopened child.
	ErrDuplicateReopen = errors.New("permit already reopened")

	// ErrSourceNotExpired is returned when a reopen targets a permit
	// that has not expired yet.
	ErrSourceNotExpired = errors.New("source permit is not expired")
)
