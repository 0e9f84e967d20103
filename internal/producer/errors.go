package producer

import "errors"

var (
	errInvalidVDF     = errors.New("producer: invalid vdf proof")
	errDuplicateIndex = errors.New("producer: block index already present")
)
