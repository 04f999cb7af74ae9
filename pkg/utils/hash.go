package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// ImageHash digests raw image bytes for cache keying. Identical bytes always
// produce the same key, independent of any derived feature.
func ImageHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
