package variant

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRun is the domain prefix for run-id hashing. The version suffix
// enables future algorithm migration without id collisions.
const DomainRun = "sweep/run/v1"

// shortIDLen is the truncated id length used in file name suffixes.
const shortIDLen = 12

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data). The null separator prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RunID computes the content-addressed id for a change record. Records that
// differ only in formatting hash identically because the canonical
// serialization is used, never the raw record text. An empty record yields
// an empty id, which callers translate to "no file name suffix".
func RunID(record ChangeRecord) (string, error) {
	if len(record) == 0 {
		return "", nil
	}
	canonical, err := marshalCanonical(record)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// ShortRunID is RunID truncated for use in file names. Empty stays empty.
func ShortRunID(record ChangeRecord) (string, error) {
	id, err := RunID(record)
	if err != nil || id == "" {
		return id, err
	}
	return id[:shortIDLen], nil
}

// MustRunID is like RunID but panics on error. Use only in tests.
func MustRunID(record ChangeRecord) string {
	id, err := RunID(record)
	if err != nil {
		panic(err)
	}
	return id
}
