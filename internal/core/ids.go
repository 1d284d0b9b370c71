package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NewTransactionID returns TX-YYYYMMDD-HHMMSS-XXXX where XXXX is two random
// bytes in upper-case hex. Collisions are improbable, not impossible.
func NewTransactionID(now time.Time) string {
	b := make([]byte, 2)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("TX-%s-%04X", now.Format("20060102-150405"), now.Nanosecond()&0xFFFF)
	}
	return "TX-" + now.Format("20060102-150405") + "-" + strings.ToUpper(hex.EncodeToString(b))
}
