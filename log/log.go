// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log re-exports github.com/luxfi/log's Logger so the code that
// logs (the producer and the node entrypoint) takes the same interface
// the rest of the Lux stack already builds against, rather than a bespoke
// facade over it. The mempool, storage and gossip packages do not log.
package log

import (
	luxlog "github.com/luxfi/log"
)

// Logger is the structured logger passed to every subsystem. Field
// arguments are variadic key-value pairs, geth-style, matching the call
// convention the rest of the node already uses (Info, Warn, Error, With).
type Logger = luxlog.Logger

// New returns a named, leveled Logger for component name (e.g.
// "producer", "storage"). Fields bound with With propagate to every
// entry the returned logger emits.
func New(name string) Logger {
	return luxlog.NewLogger(name)
}

// NewNoOp returns a Logger that discards everything. Useful in tests and
// in library paths that accept a Logger but may run headless.
func NewNoOp() Logger {
	return luxlog.NewNoOpLogger()
}
