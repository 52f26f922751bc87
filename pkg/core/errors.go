package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrClosed   = errors.New("view is closed")
	ErrNotFound = errors.New("document not found")
	ErrNoID     = errors.New("document has no ID")
)

// QueryError reports a failed one-shot query. A view whose initial
// query fails ends up Errored and never opens a subscription.
type QueryError struct {
	Collection string
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Collection, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SubscriptionError reports a failed live delivery. The view keeps
// its last-known-good projection; the subscription stays open.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// MutateError reports a failed partial write. The write is
// at-most-once; the caller decides whether to retry.
type MutateError struct {
	Collection string
	ID         string
	Err        error
}

func (e *MutateError) Error() string {
	return fmt.Sprintf("mutate %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *MutateError) Unwrap() error { return e.Err }

// IntegrityError reports a document the store delivered that violates
// the view's admission rule. The document is withheld from the
// projection and the violation surfaced on the error channel.
type IntegrityError struct {
	Collection string
	ID         string
	Reason     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s/%s: %s", e.Collection, e.ID, e.Reason)
}
