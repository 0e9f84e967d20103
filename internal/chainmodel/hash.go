package chainmodel

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/centichain/node/utils/wrappers"
)

// Hash computes the header's SHA-256 hash as the byte-exact concatenation
// of big-endian field encodings defined by the sync protocol. vdfProof is
// passed explicitly so callers can compute the pre-seal challenge hash
// (empty proof) and the final hash (stamped proof) with the same function.
func (h Header) Hash(vdfProof string) string {
	p := wrappers.NewPacker(256 + len(h.Author) + len(h.PreviousHash) + len(vdfProof) + len(h.MerkleRoot) + len(h.StateRoot))
	p.PackLong(h.Index)
	p.PackLong(h.Timestamp)
	p.PackBytes([]byte(h.Author))
	p.PackBytes([]byte(h.PreviousHash))
	p.PackBytes([]byte(vdfProof))
	p.PackBytes([]byte(h.MerkleRoot))
	p.PackBytes([]byte(h.StateRoot))
	p.PackLong(h.Nonce)
	p.PackLong(h.VDFDifficulty)
	p.PackInt(h.Version)
	p.PackLong(h.TotalFees)
	p.PackLong(h.BlockReward)
	p.PackLong(h.TotalReward)

	sum := sha256.Sum256(p.Bytes)
	return hex.EncodeToString(sum[:])
}

// ChallengeHash is the VDF challenge solved to seal the block: the header
// hash computed with an empty vdf_proof field.
func (h Header) ChallengeHash() string {
	return h.Hash("")
}
