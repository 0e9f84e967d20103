// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vdfpool runs VDF solves on a bounded blocking-worker pool so the
// cooperative production loop never blocks its own goroutine on a
// multi-second, memory-bound computation (§5: blocking workers).
package vdfpool

import (
	"context"

	"github.com/centichain/node/internal/vdf"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many VDF solves run concurrently. A node has exactly one
// CPU-and-memory budget to spend on sealing or ticket-grinding; unbounded
// concurrency here would thrash the 16 MiB scratch buffers against each
// other.
type Pool struct {
	sem *semaphore.Weighted
}

// New returns a Pool allowing up to maxConcurrent solves at once.
func New(maxConcurrent int64) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Solve acquires a worker slot, runs engine.Solve(challenge) on it, and
// returns the proof. If ctx is canceled before a slot frees up or before
// the solve completes, Solve returns ctx.Err(); the in-flight computation
// is abandoned (it holds no lock and touches no shared state besides its
// own scratch buffer).
func (p *Pool) Solve(ctx context.Context, engine *vdf.Engine, challenge []byte) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.sem.Release(1)

	result := make(chan string, 1)
	go func() { result <- engine.Solve(challenge) }()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case proof := <-result:
		return proof, nil
	}
}
