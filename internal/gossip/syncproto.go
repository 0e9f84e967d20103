package gossip

import (
	"fmt"

	"github.com/centichain/node/codec"
	"github.com/centichain/node/internal/chainmodel"
)

// SyncRequestKind tags the variant carried by a SyncRequest envelope.
type SyncRequestKind string

const (
	SyncGetHeight      SyncRequestKind = "GetHeight"
	SyncGetBlock       SyncRequestKind = "GetBlock"
	SyncGetBlocksRange SyncRequestKind = "GetBlocksRange"
	SyncGetHeaders     SyncRequestKind = "GetHeaders"
	SyncGetMempool     SyncRequestKind = "GetMempool"
)

// SyncRequest is the CBOR-encoded envelope for the request/response sync
// protocol (§6). Fields irrelevant to Kind are left zero.
type SyncRequest struct {
	Kind       SyncRequestKind `cbor:"kind"`
	Index      uint64          `cbor:"index,omitempty"`
	RangeStart uint64          `cbor:"range_start,omitempty"`
	RangeEnd   uint64          `cbor:"range_end,omitempty"`
}

// SyncResponseKind tags the variant carried by a SyncResponse envelope.
type SyncResponseKind string

const (
	RespHeight      SyncResponseKind = "Height"
	RespBlock       SyncResponseKind = "Block"
	RespBlocksBatch SyncResponseKind = "BlocksBatch"
	RespHeadersBatch SyncResponseKind = "HeadersBatch"
	RespMempool     SyncResponseKind = "Mempool"
)

// SyncResponse is the CBOR-encoded reply to a SyncRequest.
type SyncResponse struct {
	Kind    SyncResponseKind      `cbor:"kind"`
	Height  uint64                `cbor:"height,omitempty"`
	Block   *chainmodel.Block     `cbor:"block,omitempty"`
	Blocks  []chainmodel.Block    `cbor:"blocks,omitempty"`
	Headers []chainmodel.Header   `cbor:"headers,omitempty"`
	Mempool []chainmodel.Transaction `cbor:"mempool,omitempty"`
}

// EncodeRequest marshals req using the node's wire codec.
func EncodeRequest(req SyncRequest) ([]byte, error) {
	return codec.Codec.Marshal(codec.CurrentVersion, req)
}

// DecodeRequest unmarshals a wire-encoded SyncRequest.
func DecodeRequest(data []byte) (SyncRequest, error) {
	var req SyncRequest
	if _, err := codec.Codec.Unmarshal(data, &req); err != nil {
		return SyncRequest{}, fmt.Errorf("gossip: decode sync request: %w", err)
	}
	return req, nil
}

// EncodeResponse marshals resp using the node's wire codec.
func EncodeResponse(resp SyncResponse) ([]byte, error) {
	return codec.Codec.Marshal(codec.CurrentVersion, resp)
}

// DecodeResponse unmarshals a wire-encoded SyncResponse.
func DecodeResponse(data []byte) (SyncResponse, error) {
	var resp SyncResponse
	if _, err := codec.Codec.Unmarshal(data, &resp); err != nil {
		return SyncResponse{}, fmt.Errorf("gossip: decode sync response: %w", err)
	}
	return resp, nil
}

// BlocksRangeResponse builds a BlocksBatch response over [start, end]
// inclusive, stopping at the first gap in the provided lookup.
func BlocksRangeResponse(start, end uint64, lookup func(uint64) (*chainmodel.Block, error)) (SyncResponse, error) {
	var blocks []chainmodel.Block
	for i := start; i <= end; i++ {
		b, err := lookup(i)
		if err != nil {
			return SyncResponse{}, err
		}
		if b == nil {
			break
		}
		blocks = append(blocks, *b)
	}
	return SyncResponse{Kind: RespBlocksBatch, Blocks: blocks}, nil
}
