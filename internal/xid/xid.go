// Package xid mints the prefixed record identifiers used across the shop:
// "prod" for catalog products, "stk" for stock ledger entries, "sale" for
// sale records and "user" for accounts. The prefix keeps ids greppable in
// logs and unambiguous across tables.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns a fresh id of the form <prefix>-<unixnano>-<8 random bytes>.
// If the system's entropy source fails, the timestamp alone still keeps ids
// unique enough for a single process.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
