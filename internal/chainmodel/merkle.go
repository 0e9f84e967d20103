package chainmodel

import (
	"crypto/sha256"
	"encoding/hex"
)

// emptyMerkleRoot is returned for a body with no transactions, and doubles
// as the zero previous_hash for the genesis block.
const emptyMerkleRoot = "0000000000000000000000000000000000000000000000000000000000000000"

// MerkleRoot computes the Merkle root over transaction ids (not full
// transaction bytes). Levels of odd width duplicate the last hash; an
// empty input yields 64 zero characters.
func MerkleRoot(ids []string) string {
	if len(ids) == 0 {
		return emptyMerkleRoot
	}

	level := make([][]byte, len(ids))
	for i, id := range ids {
		sum := sha256.Sum256([]byte(id))
		level[i] = sum[:]
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next = append(next, sum[:])
		}
		level = next
	}
	return hex.EncodeToString(level[0])
}
