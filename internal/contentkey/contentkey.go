// Package contentkey derives the report content key: the SHA-256 digest of
// the normalized report metadata, used as the box name on the ledger.
package contentkey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ISOLayout renders dates the way browsers' Date#toISOString does.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Size is the length of a key in hex characters.
const Size = sha256.Size * 2

var ErrInvalidKey = errors.New("content key must be 64 lowercase hex characters")

// Metadata holds the fields that participate in the key. Empty optional
// fields are left out of the normalized form.
type Metadata struct {
	Message      string
	IncidentDate *time.Time
	PoliceRef    string
	EvidenceCID  string
	Anonymous    bool
}

type Key [sha256.Size]byte

// String returns the lowercase hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// BoxName returns the ledger box name for the key: the raw bytes of its hex
// form. The on-chain program stores under exactly these bytes, so this is
// the only place the conversion happens.
func (k Key) BoxName() []byte {
	return []byte(k.String())
}

func (k Key) IsZero() bool {
	return k == Key{}
}

// Normalize builds the canonical byte string that is hashed.
func Normalize(m Metadata) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(m.Message))
	if m.IncidentDate != nil && !m.IncidentDate.IsZero() {
		writeTag(&b, "DATE", m.IncidentDate.UTC().Format(ISOLayout))
	}
	if m.PoliceRef != "" {
		writeTag(&b, "POLICE_REF", m.PoliceRef)
	}
	if m.EvidenceCID != "" {
		writeTag(&b, "EVIDENCE", m.EvidenceCID)
	}
	if m.Anonymous {
		writeTag(&b, "ANONYMOUS", "true")
	}
	return b.String()
}

func writeTag(b *strings.Builder, tag, value string) {
	b.WriteString("\n[")
	b.WriteString(tag)
	b.WriteString(":")
	b.WriteString(value)
	b.WriteString("]")
}

// Derive hashes the normalized metadata.
func Derive(m Metadata) Key {
	return Sum(Normalize(m))
}

// Sum hashes an already normalized metadata string.
func Sum(normalized string) Key {
	return Key(sha256.Sum256([]byte(normalized)))
}

// Parse accepts the 64-character lowercase hex form produced by String.
func Parse(s string) (Key, error) {
	var k Key
	if len(s) != Size || strings.ToLower(s) != s {
		return k, ErrInvalidKey
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return Key{}, ErrInvalidKey
	}
	return k, nil
}
