package core

import "errors"

// Business-rule errors. These are rejected before any write happens and
// must not be retried unmodified; anything else coming out of an
// operation is an infrastructure failure surfaced after a full
// rollback, which the caller may retry.
var (
	// ErrInvalidID means an id argument was zero or negative.
	ErrInvalidID = errors.New("id must be positive")

	// ErrInvalidAmount means an amount was zero or negative (or a
	// starting balance was negative).
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSameAccount means a transfer named the same account on both
	// sides.
	ErrSameAccount = errors.New("source and destination accounts are the same")

	// ErrNotOwner means the account does not belong to the loan's
	// holder.
	ErrNotOwner = errors.New("account does not belong to the loan holder")

	// ErrInvalidAccountType means the account type tag is unknown.
	ErrInvalidAccountType = errors.New("unknown account type")

	// ErrBadCredentials means login failed.
	ErrBadCredentials = errors.New("invalid username or password")
)
