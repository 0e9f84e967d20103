// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/centichain/node/internal/config"
	"github.com/centichain/node/internal/gossip"
	"github.com/centichain/node/internal/mempool"
	"github.com/centichain/node/internal/nodemetrics"
	"github.com/centichain/node/internal/producer"
	"github.com/centichain/node/internal/registry"
	"github.com/centichain/node/internal/storage"
	"github.com/centichain/node/internal/tokenomics"
	"github.com/centichain/node/internal/vdf"
	"github.com/centichain/node/internal/vdfpool"
	"github.com/centichain/node/log"
	"github.com/centichain/node/utils/constants"
	"github.com/centichain/node/version"
	"github.com/luxfi/database/memdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagDataDir    string
	flagPeerID     string
	flagRelayAddr  string
	flagNoMine     bool
	flagNetworkID  uint32
)

func main() {
	root := &cobra.Command{
		Use:   "centichain-node",
		Short: "Proof-of-Patience sharded node",
		Long: `centichain-node runs a single validator of the Proof-of-Patience
sharded chain: a memory-hard VDF Sybil ticket, deterministic per-shard
slot-leader election, and cross-shard receipts.`,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a config file (optional)")
	root.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the configured data directory")
	root.PersistentFlags().StringVar(&flagPeerID, "peer-id", "", "this node's validator identity (defaults to data-dir basename)")
	root.PersistentFlags().StringVar(&flagRelayAddr, "relay", "", "override the configured bootstrap relay address")
	root.PersistentFlags().BoolVar(&flagNoMine, "no-mine", false, "disable block production; run as a syncing observer")
	root.PersistentFlags().Uint32Var(&flagNetworkID, "network-id", constants.LocalID, "network id this node participates in")

	root.AddCommand(runCmd(), genesisCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadNodeConfig() (config.Node, error) {
	node, err := config.Load(flagConfig)
	if err != nil {
		return config.Node{}, fmt.Errorf("load config: %w", err)
	}
	if flagDataDir != "" {
		node.DataDir = flagDataDir
	}
	if flagRelayAddr != "" {
		node.RelayAddr = flagRelayAddr
	}
	if flagNoMine {
		node.MiningEnabled = false
	}
	if err := node.Valid(); err != nil {
		return config.Node{}, fmt.Errorf("invalid config: %w", err)
	}
	return node, nil
}

func peerIdentity(node config.Node) string {
	if flagPeerID != "" {
		return flagPeerID
	}
	return filepath.Base(filepath.Clean(node.DataDir))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the node: sync, then produce blocks if mining is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode()
		},
	}
}

func runNode() error {
	node, err := loadNodeConfig()
	if err != nil {
		return err
	}
	peerID := peerIdentity(node)

	logger := log.New("centichain-node")
	logger = logger.With("peer_id", peerID, "network", constants.NetworkName(flagNetworkID))
	logger.Info("starting node", "version", version.Current().String(), "data_dir", node.DataDir)

	db := memdb.New()
	defer db.Close()

	st, err := storage.New(db)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	mp := mempool.New(st)
	if err := mp.LoadFromDB(); err != nil {
		return fmt.Errorf("hydrate mempool: %w", err)
	}

	reg := registry.New(constants.RelayPeerID)

	var overlay gossip.Overlay = gossip.NewLoopback()

	promReg := prometheus.NewRegistry()
	metricsSet, err := nodemetrics.New(promReg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	go serveMetrics(node.MetricsAddr, promReg, logger)

	pool := vdfpool.New(2)
	prod := producer.New(node, peerID, st, mp, reg, overlay, pool, metricsSet, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := prod.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("producer: %w", err)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger log.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "err", err)
	}
}

func genesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the tokenomics constants used to mint the genesis block",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("one_agt:          %d\n", tokenomics.OneAGT)
			fmt.Printf("total_supply:     %d\n", tokenomics.TotalSupply)
			fmt.Printf("genesis_supply:   %d\n", tokenomics.GenesisSupply)
			fmt.Printf("initial_reward:   %d\n", tokenomics.InitialReward)
			fmt.Printf("halving_interval: %d\n", tokenomics.HalvingInterval)
			fmt.Printf("sybil_difficulty(1 validator):   %d\n", vdf.SybilDifficulty(1))
			fmt.Printf("sealing_difficulty(1 validator): %d\n", vdf.SealingDifficulty(1))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the node's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.Current().String())
			return nil
		},
	}
}
