// Package storage defines the persistence contracts for coursehub and the
// helpers shared by every adapter.
//
// Adapters (memory, postgres) implement [Store]. They report a missing row
// with [ErrNotFound] and a duplicate login key with an
// *api.ValidationError of kind api.UniqueConstraint, so callers never see
// driver-specific errors for expected conditions.
//
// [Persist] and [Normalize] sit between a handler and a store write: they
// let validation failures through unchanged and turn everything else into
// an *api.ServerFault.
package storage
