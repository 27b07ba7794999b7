// Package oracle defines the randomness oracle boundary: the external service
// that selects a member when a cycle closes with no bids.
//
// A selection request returns a handle immediately; the actual result arrives
// later through a separate, authenticated delivery to the engine. The request
// and the fulfillment are genuinely separate invocations in time; the engine
// never blocks waiting for the oracle.
package oracle

import (
	"context"
	"errors"
)

var (
	// ErrUnknownRequest is returned for a handle the oracle has no record of.
	ErrUnknownRequest = errors.New("unknown randomness request")
	// ErrNotFulfilled is returned when a result is read before fulfillment.
	ErrNotFulfilled = errors.New("randomness request not yet fulfilled")
)

// Oracle is the contract the engine consumes.
type Oracle interface {
	// RequestSelection asks for a random pick over candidates and returns a
	// request handle. The result is delivered asynchronously.
	RequestSelection(ctx context.Context, candidates []string) (string, error)

	// IsFulfilled reports whether the request has a result available.
	// Used by the manual recovery path when callback delivery failed.
	IsFulfilled(ctx context.Context, handle string) (bool, error)

	// Result returns the selected candidate for a fulfilled request.
	Result(ctx context.Context, handle string) (string, error)
}

// FulfillmentFunc is the engine entry point an oracle delivers results to.
// callerID identifies the oracle; the engine rejects deliveries from anyone
// else.
type FulfillmentFunc func(ctx context.Context, callerID, handle, winner string) error
