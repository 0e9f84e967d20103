package gossip

import (
	"testing"

	"github.com/centichain/node/internal/chainmodel"
	"github.com/stretchr/testify/require"
)

func TestShardTopics(t *testing.T) {
	require.Equal(t, Topic("centichain-shard-0-blocks"), ShardBlocksTopic(0))
	require.Equal(t, Topic("centichain-shard-3-txs"), ShardTxsTopic(3))
}

func TestSyncRequest_RoundTrip(t *testing.T) {
	req := SyncRequest{Kind: SyncGetBlocksRange, RangeStart: 1, RangeEnd: 10}
	data, err := EncodeRequest(req)
	require.NoError(t, err)

	decoded, err := DecodeRequest(data)
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}

func TestSyncResponse_RoundTrip(t *testing.T) {
	resp := SyncResponse{Kind: RespHeight, Height: 42}
	data, err := EncodeResponse(resp)
	require.NoError(t, err)

	decoded, err := DecodeResponse(data)
	require.NoError(t, err)
	require.Equal(t, resp.Height, decoded.Height)
	require.Equal(t, resp.Kind, decoded.Kind)
}

func TestBlocksRangeResponse_StopsAtGap(t *testing.T) {
	blocks := map[uint64]*chainmodel.Block{
		0: {Header: chainmodel.Header{Index: 0}},
		1: {Header: chainmodel.Header{Index: 1}},
		// index 2 missing
		3: {Header: chainmodel.Header{Index: 3}},
	}
	lookup := func(i uint64) (*chainmodel.Block, error) { return blocks[i], nil }

	resp, err := BlocksRangeResponse(0, 3, lookup)
	require.NoError(t, err)
	require.Len(t, resp.Blocks, 2)
}
