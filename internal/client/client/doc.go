// Package client contains the client-side building blocks of vanish.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) for the
//     protected media service: create, info, list, claim, finalize, revoke,
//     reports, presigned URLs and Ping.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, speaks the JSON codec from internal/rpc, injects the access
//     token via an interceptor and rebuilds the server's sentinel errors from
//     status details.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Errors returned by GRPCClient wrap the sentinels of internal/common, so
// callers match them with errors.Is: common.ErrAlreadyViewed,
// common.ErrExpired, common.ErrPermissionDenied and so on.
// common.IsRetryable tells the one retryable kind apart.
//
// # Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation; calls without a deadline get
// DefaultCallTimeout.
package client
