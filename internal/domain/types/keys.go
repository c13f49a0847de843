package types

import (
	"encoding/base64"
	"fmt"
)

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// MarshalText encodes the key as standard base64.
func (p Ed25519Public) MarshalText() ([]byte, error) { return marshalB64(p[:]), nil }

// UnmarshalText decodes a standard base64 key of exactly 32 bytes.
func (p *Ed25519Public) UnmarshalText(b []byte) error { return unmarshalB64(p[:], b, "ed25519 public") }

// Ed25519Private is an Ed25519 signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// Point is the canonical 32-byte encoding of an edwards25519 group element.
type Point [32]byte

// Slice returns the point encoding as a []byte.
func (p Point) Slice() []byte { return p[:] }

// IsZero reports whether p is the all-zero encoding (an unset point).
func (p Point) IsZero() bool { return p == Point{} }

// MarshalText encodes the point as standard base64.
func (p Point) MarshalText() ([]byte, error) { return marshalB64(p[:]), nil }

// UnmarshalText decodes a standard base64 point of exactly 32 bytes. It does
// not check that the encoding is a valid group element.
func (p *Point) UnmarshalText(b []byte) error { return unmarshalB64(p[:], b, "point") }

// Scalar is the canonical 32-byte little-endian encoding of an edwards25519
// scalar.
type Scalar [32]byte

// Slice returns the scalar encoding as a []byte.
func (s Scalar) Slice() []byte { return s[:] }

// MarshalText encodes the scalar as standard base64.
func (s Scalar) MarshalText() ([]byte, error) { return marshalB64(s[:]), nil }

// UnmarshalText decodes a standard base64 scalar of exactly 32 bytes.
func (s *Scalar) UnmarshalText(b []byte) error { return unmarshalB64(s[:], b, "scalar") }

func marshalB64(b []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
	base64.StdEncoding.Encode(out, b)
	return out
}

func unmarshalB64(dst, src []byte, what string) error {
	buf := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(buf, src)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%s: want %d bytes, got %d", what, len(dst), n)
	}
	copy(dst, buf[:n])
	return nil
}
