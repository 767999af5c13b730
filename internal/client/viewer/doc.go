// Package viewer implements the client side of the view protocol.
//
// A Session claims a view before anything is revealed, keeps the countdown
// anchored to the server's expiry and finalizes exactly once. Finalize calls
// that cannot be delivered are parked in the pending outbox and drained
// later by a Retrier.
package viewer
