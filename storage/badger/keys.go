package badger

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
)

// Key prefixes for different data types
const (
	weightsKey      = "mdlwgt:current"
	examplesKey     = "trnex:all"
	embeddingPrefix = "embvec"
)

// makeEmbeddingKey generates the key for a cached embedding.
// Format: prefix:hex(blake2b-256(text))
func makeEmbeddingKey(text string) []byte {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)

	prefix := embeddingPrefix + ":"
	buf := make([]byte, len(prefix)+hex.EncodedLen(len(sum)))
	offset := copy(buf, prefix)
	hex.Encode(buf[offset:], sum)
	return buf
}
