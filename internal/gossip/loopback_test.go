package gossip

import (
	"context"
	"testing"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/stretchr/testify/require"
)

func TestLoopback_NeverBlocksOnPublish(t *testing.T) {
	l := NewLoopback()
	require.True(t, l.RelayConnected())
	require.Empty(t, l.ConnectedPeers())
	require.NoError(t, l.PublishBlock(context.Background(), 0, chainmodel.Block{}))
	require.NoError(t, l.PublishTransaction(context.Background(), 0, chainmodel.Transaction{}))
	require.NoError(t, l.PublishVDFProof(context.Background(), chainmodel.VdfProofMessage{}))
	require.NoError(t, l.RequestSync(context.Background(), "peer"))

	select {
	case <-l.VDFProofs():
		t.Fatal("loopback must never deliver a vdf proof")
	default:
	}
}
