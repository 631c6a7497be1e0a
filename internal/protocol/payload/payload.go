package payload

import (
	"bytes"
	"errors"
	"fmt"

	xdr "github.com/davecgh/go-xdr/xdr2"
)

const (
	// RecordVersion is the layout version written into every record.
	RecordVersion = 1

	// NonceBytes is the size of the per-message replay nonce.
	NonceBytes = 24
)

var (
	// ErrMalformed is returned when a decrypted plaintext is not a record.
	ErrMalformed = errors.New("malformed plaintext record")

	// ErrUnknownLayout is returned for a record version this build cannot read.
	ErrUnknownLayout = errors.New("unknown plaintext record layout")
)

// Record is the plaintext sealed inside every message. Field order is the
// wire order.
type Record struct {
	Version  uint32
	Nonce    [NonceBytes]byte
	Text     string
	FileURL  string
	FileName string
	FileType string
	FileSize int64
}

// Marshal encodes r as XDR. Version is forced to RecordVersion.
func Marshal(r Record) ([]byte, error) {
	r.Version = RecordVersion
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, r); err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes b into a Record. Trailing bytes are rejected.
func Unmarshal(b []byte) (Record, error) {
	var r Record
	br := bytes.NewReader(b)
	if _, err := xdr.Unmarshal(br, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if br.Len() != 0 {
		return Record{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, br.Len())
	}
	if r.Version != RecordVersion {
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownLayout, r.Version)
	}
	return r, nil
}
