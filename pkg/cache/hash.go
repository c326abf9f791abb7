package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
)

// Hash returns the hex SHA-256 of data. Scene sources and encoded frames
// are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digest feeds each part to h as one JSON line. Parts JSON cannot encode,
// such as options holding NaN, are written in Go syntax instead so they
// still get a key of their own.
func digest(h hash.Hash, parts ...any) string {
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			fmt.Fprintf(h, "%#v\n", p)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
