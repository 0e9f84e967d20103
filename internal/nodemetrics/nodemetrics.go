// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nodemetrics wires the node's domain counters and gauges onto a
// prometheus.Registerer, using the shared metrics primitives.
package nodemetrics

import (
	"github.com/centichain/node/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Node collects the counters and gauges the block-production loop,
// registry, and mempool report against.
type Node struct {
	BlocksProduced  prometheus.Counter
	BlocksReceived  prometheus.Counter
	SlotsMissed     prometheus.Counter
	VDFSolveSeconds metrics.Averager
	MempoolSize     prometheus.Gauge
	RegistrySize    prometheus.Gauge
	ChainHeight     prometheus.Gauge
}

// New registers the node's metrics against reg and returns the collection.
func New(reg prometheus.Registerer) (*Node, error) {
	m := metrics.NewMetrics(reg)

	blocksProduced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centichain_blocks_produced_total",
		Help: "Total number of blocks this node has produced as leader.",
	})
	if err := m.Register(blocksProduced); err != nil {
		return nil, err
	}

	blocksReceived := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centichain_blocks_received_total",
		Help: "Total number of blocks received from peers.",
	})
	if err := m.Register(blocksReceived); err != nil {
		return nil, err
	}

	slotsMissed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centichain_slots_missed_total",
		Help: "Total number of slots slashed for a missing leader.",
	})
	if err := m.Register(slotsMissed); err != nil {
		return nil, err
	}

	vdfSeconds, err := metrics.NewAverager("centichain_vdf_solve_seconds", "VDF solve duration in seconds", reg)
	if err != nil {
		return nil, err
	}

	mempoolSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centichain_mempool_size",
		Help: "Current number of pending transactions.",
	})
	if err := m.Register(mempoolSize); err != nil {
		return nil, err
	}

	registrySize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centichain_registry_size",
		Help: "Current number of registered validator peers.",
	})
	if err := m.Register(registrySize); err != nil {
		return nil, err
	}

	chainHeight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centichain_chain_height",
		Help: "Current local chain height.",
	})
	if err := m.Register(chainHeight); err != nil {
		return nil, err
	}

	return &Node{
		BlocksProduced:  blocksProduced,
		BlocksReceived:  blocksReceived,
		SlotsMissed:     slotsMissed,
		VDFSolveSeconds: vdfSeconds,
		MempoolSize:     mempoolSize,
		RegistrySize:    registrySize,
		ChainHeight:     chainHeight,
	}, nil
}
