package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// maxKeyLength bounds storage key size; longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts the limiting identity of a request.
type KeyFunc func(*http.Request) string

// Composite joins the non-empty results of keyFuncs with ':'. Keys longer
// than 64 bytes are replaced with a 128-bit SHA-256 prefix in hex.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}
		return combined
	}
}
