package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Identity returns the dedup fingerprint for an extracted transaction:
// lowercase hex SHA-256 of "{yyyyMMdd}_{amount}_{description}".
// Identical triples hash identically no matter which extractor produced
// them or how often extraction runs; the ledger store uses this as the
// sole cross-import dedup key.
func Identity(date time.Time, amount decimal.Decimal, description string) string {
	payload := fmt.Sprintf("%s_%s_%s", date.Format("20060102"), amount.String(), description)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
