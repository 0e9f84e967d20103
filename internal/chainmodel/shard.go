package chainmodel

import "crypto/sha256"

// ShardOf deterministically derives the shard an address belongs to for a
// given epoch, using the same construction as validator shard assignment:
// SHA-256(address || epoch_le) mod activeShards.
func ShardOf(address string, epoch uint64, activeShards uint16) uint16 {
	if activeShards == 0 {
		activeShards = 1
	}
	h := sha256.New()
	h.Write([]byte(address))
	var epochLE [8]byte
	for i := 0; i < 8; i++ {
		epochLE[i] = byte(epoch >> (8 * i))
	}
	h.Write(epochLE[:])
	sum := h.Sum(nil)
	hashVal := uint16(sum[0])<<8 | uint16(sum[1])
	return hashVal % activeShards
}
