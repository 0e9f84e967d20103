// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tokenomics defines the node's fixed monetary policy: unit scale,
// supply caps, the fee schedule, and the block-reward halving curve.
package tokenomics

import "math"

const (
	// OneAGT is the smallest-unit scale: 1 AGT == 1_000_000 base units.
	OneAGT uint64 = 1_000_000

	// TotalSupply is the hard cap on circulating base units, ever.
	TotalSupply uint64 = 21_000_000 * OneAGT

	// GenesisSupply is minted entirely by the index-0 coinbase transaction.
	GenesisSupply uint64 = 5_000_000 * OneAGT

	// InitialReward is the block reward before any halving has occurred.
	InitialReward uint64 = 126_839

	// HalvingInterval is the number of block indices between halvings.
	HalvingInterval uint64 = 63_072_000

	// minFee is the floor every transaction fee is clamped to.
	minFee uint64 = 1_000

	// feeRate is the proportional component of the fee: amount * feeRate.
	feeRate = 0.0001
)

// CalculateFee returns the fee owed on a transaction moving amount base
// units: the greater of the 1000-unit floor and ceil(amount * 0.0001).
func CalculateFee(amount uint64) uint64 {
	proportional := uint64(math.Ceil(float64(amount) * feeRate))
	if proportional > minFee {
		return proportional
	}
	return minFee
}

// CalculateMiningReward returns the block reward for the block at index.
// Index 0 mints the entire genesis supply; every HalvingInterval blocks
// thereafter the reward halves, floored to zero once the shift reaches the
// width of a uint64 (64).
func CalculateMiningReward(index uint64) uint64 {
	if index == 0 {
		return GenesisSupply
	}
	shift := index / HalvingInterval
	if shift >= 64 {
		return 0
	}
	return InitialReward >> shift
}
