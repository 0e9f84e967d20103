// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vdf implements the node's memory-hard verifiable delay function:
// the Sybil-resistance ticket validators solve to prove patience, and the
// sealing proof a slot leader stamps on every block it produces.
package vdf

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// BufferSize is the width of the scratch buffer the solve loop walks.
// 16 MiB makes the workload memory-latency bound rather than CPU bound,
// which is what makes the ticket expensive to grind on cheap hardware.
// Verification recomputes the solve and costs the same.
const BufferSize = 16 * 1024 * 1024

const lcgMul = 1664525
const lcgAdd = 1013904223

// bufferPool reuses 16 MiB scratch buffers across solves instead of
// allocating one per call; a node soloing or sealing blocks back-to-back
// would otherwise churn the GC on a buffer this size every couple seconds.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Engine solves and verifies VDF proofs at a fixed difficulty: the number
// of memory-access iterations performed over the scratch buffer.
type Engine struct {
	Difficulty uint64
}

// New returns an Engine at the given difficulty.
func New(difficulty uint64) *Engine {
	return &Engine{Difficulty: difficulty}
}

// Solve runs the delay function over challenge and returns the lowercase
// hex digest of the final buffer state.
func (e *Engine) Solve(challenge []byte) string {
	bufPtr := bufferPool.Get().(*[]byte)
	buf := *bufPtr
	defer bufferPool.Put(bufPtr)

	seed := sha256.Sum256(challenge)
	fillBuffer(buf, seed)

	pointer := 0
	idxRNG := uint32(seed[0]) | uint32(seed[1])<<8 | uint32(seed[2])<<16 | uint32(seed[3])<<24

	for i := uint64(0); i < e.Difficulty; i++ {
		idxRNG = idxRNG*lcgMul + lcgAdd
		readIndex := int(idxRNG) % BufferSize
		if readIndex < 0 {
			readIndex += BufferSize
		}
		buf[pointer] = (buf[pointer] + buf[readIndex]) * 3
		pointer = (pointer + 1) % BufferSize
	}

	result := sha256.Sum256(buf)
	return hex.EncodeToString(result[:])
}

// Verify recomputes Solve(challenge) and compares it against proof. There
// is no succinct verification path: a verifier pays the same memory-bound
// cost as the prover did.
func (e *Engine) Verify(challenge []byte, proof string) bool {
	return e.Solve(challenge) == proof
}

// fillBuffer deterministically fills buf by streaming
// seed, SHA-256(seed), SHA-256(SHA-256(seed)), ... in 32-byte chunks.
func fillBuffer(buf []byte, seed [32]byte) {
	chunk := seed
	for i := 0; i < len(buf); i += 32 {
		copy(buf[i:], chunk[:])
		chunk = sha256.Sum256(chunk[:])
	}
}

// PeerChallenge derives the Sybil-ticket challenge for a validator's
// identity: hex(SHA-256(peer_id || "Patience")).
func PeerChallenge(peerID string) string {
	h := sha256.New()
	h.Write([]byte(peerID))
	h.Write([]byte("Patience"))
	return hex.EncodeToString(h.Sum(nil))
}

// SybilDifficulty returns the Proof-of-Patience ticket difficulty for a
// registry of the given validator count.
func SybilDifficulty(validatorCount int) uint64 {
	return 3_000_000 + 500_000*uint64(validatorCount)
}

// SealingDifficulty returns the block-sealing difficulty for a registry of
// the given validator count. Sealing is deliberately cheap: the ticket, not
// the seal, carries the Sybil-resistance burden.
func SealingDifficulty(validatorCount int) uint64 {
	if validatorCount <= 1 {
		return 100
	}
	return 100 + 100*uint64(validatorCount)
}
