package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConsensus_Valid(t *testing.T) {
	require.NoError(t, DefaultConsensus().Valid())
}

func TestConsensus_Valid_RejectsZeroSlotDuration(t *testing.T) {
	c := DefaultConsensus()
	c.SlotDuration = 0
	require.ErrorIs(t, c.Valid(), ErrInvalidSlotDuration)
}

func TestConsensus_Valid_RejectsNonMultipleEpoch(t *testing.T) {
	c := DefaultConsensus()
	c.EpochDuration = 601 * time.Second
	require.ErrorIs(t, c.Valid(), ErrInvalidEpochDuration)
}

func TestConsensus_Valid_RejectsZeroMaxTxs(t *testing.T) {
	c := DefaultConsensus()
	c.MaxTxsPerBlock = 0
	require.ErrorIs(t, c.Valid(), ErrInvalidMaxTxs)
}

func TestConsensus_Valid_RejectsZeroMaxBlockSize(t *testing.T) {
	c := DefaultConsensus()
	c.MaxBlockSizeBytes = 0
	require.ErrorIs(t, c.Valid(), ErrInvalidMaxBlockSize)
}

func TestDefaultNode_Valid(t *testing.T) {
	require.NoError(t, DefaultNode().Valid())
}

func TestNode_Valid_RejectsEmptyDataDir(t *testing.T) {
	n := DefaultNode()
	n.DataDir = ""
	require.ErrorIs(t, n.Valid(), ErrInvalidDataDir)
}

func TestSolo_MatchesDefault(t *testing.T) {
	require.Equal(t, DefaultNode(), Solo())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	node, err := Load("/nonexistent/path/centichain.yaml")
	require.NoError(t, err)
	require.Equal(t, DefaultNode().DataDir, node.DataDir)
	require.Equal(t, DefaultNode().MiningEnabled, node.MiningEnabled)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	node, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultNode(), node)
}
