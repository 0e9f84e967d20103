// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the node's tunable parameters and loads them
// from file, environment, and flags via viper.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

// Validation errors.
var (
	ErrInvalidSlotDuration  = errors.New("config: slot duration must be > 0")
	ErrInvalidEpochDuration = errors.New("config: epoch duration must be a multiple of slot duration")
	ErrInvalidMaxTxs        = errors.New("config: max txs per block must be > 0")
	ErrInvalidMaxBlockSize  = errors.New("config: max block size must be > 0")
	ErrInvalidDataDir       = errors.New("config: data directory must be set")
)

// Consensus holds the PoP consensus core's tunables (§4.1).
type Consensus struct {
	SlotDuration       time.Duration
	EpochDuration      time.Duration
	ValidatorsPerShard uint64
	TargetBlockTime    time.Duration
	MaxTxsPerBlock      int
	MaxBlockSizeBytes   int64
}

// DefaultConsensus returns the parameters named in §4.1.
func DefaultConsensus() Consensus {
	return Consensus{
		SlotDuration:       2 * time.Second,
		EpochDuration:      600 * time.Second,
		ValidatorsPerShard: 50,
		TargetBlockTime:    2 * time.Second,
		MaxTxsPerBlock:     3000,
		MaxBlockSizeBytes:  1_500_000,
	}
}

// Valid checks Consensus for internal consistency.
func (c Consensus) Valid() error {
	if c.SlotDuration <= 0 {
		return ErrInvalidSlotDuration
	}
	if c.EpochDuration <= 0 || c.EpochDuration%c.SlotDuration != 0 {
		return ErrInvalidEpochDuration
	}
	if c.MaxTxsPerBlock <= 0 {
		return ErrInvalidMaxTxs
	}
	if c.MaxBlockSizeBytes <= 0 {
		return ErrInvalidMaxBlockSize
	}
	return nil
}

// Node holds process-level configuration: identity, storage location, and
// the subset of consensus parameters an operator may override.
type Node struct {
	DataDir      string
	ListenAddr   string
	RelayAddr    string
	MiningEnabled bool
	MetricsAddr  string
	Consensus    Consensus
}

// DefaultNode returns a Node configured for a single, self-sufficient
// instance: mining enabled, default consensus parameters, local storage.
func DefaultNode() Node {
	return Node{
		DataDir:       "./data",
		ListenAddr:    "/ip4/0.0.0.0/tcp/4001",
		MiningEnabled: true,
		MetricsAddr:   ":9090",
		Consensus:     DefaultConsensus(),
	}
}

// Solo returns a Node tuned to bootstrap without any peers: identical to
// DefaultNode, since solo bootstrap is a registry-level behavior (§4.1
// solo eligibility, §4.3 Phase B) rather than a distinct parameter set.
func Solo() Node {
	return DefaultNode()
}

// Valid checks Node for internal consistency.
func (n Node) Valid() error {
	if n.DataDir == "" {
		return ErrInvalidDataDir
	}
	return n.Consensus.Valid()
}

// Load reads configuration from path (if it exists), then CENTICHAIN_*
// environment variables, layered over DefaultNode.
func Load(path string) (Node, error) {
	v := viper.New()
	v.SetEnvPrefix("CENTICHAIN")
	v.AutomaticEnv()

	def := DefaultNode()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("relay_addr", def.RelayAddr)
	v.SetDefault("mining_enabled", def.MiningEnabled)
	v.SetDefault("metrics_addr", def.MetricsAddr)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
				return Node{}, err
			}
		}
	}

	node := def
	node.DataDir = v.GetString("data_dir")
	node.ListenAddr = v.GetString("listen_addr")
	node.RelayAddr = v.GetString("relay_addr")
	node.MiningEnabled = v.GetBool("mining_enabled")
	node.MetricsAddr = v.GetString("metrics_addr")

	if err := node.Valid(); err != nil {
		return Node{}, err
	}
	return node, nil
}
