package persistence

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// ErrFingerprintKeyTooLong is returned for keys blake2b cannot use
var ErrFingerprintKeyTooLong = errors.New("persistence: fingerprint key exceeds 64 bytes")

// Fingerprinter derives a stable, keyed digest of a tax id so audits of the
// same identifier can be correlated without storing it
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a fingerprinter. An empty key still works but
// makes the digest guessable by enumeration.
func NewFingerprinter(key string) (*Fingerprinter, error) {
	if len(key) > blake2b.Size {
		return nil, ErrFingerprintKeyTooLong
	}
	return &Fingerprinter{key: []byte(key)}, nil
}

// Fingerprint returns the hex encoded keyed BLAKE2b-256 digest of the digits
func (f *Fingerprinter) Fingerprint(taxID pendency.TaxID) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// key length is checked by NewFingerprinter
		panic(err)
	}
	h.Write([]byte(taxID.Digits()))
	return hex.EncodeToString(h.Sum(nil))
}
