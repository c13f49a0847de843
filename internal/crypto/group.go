package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"filippo.io/edwards25519"

	"deaddrop/internal/domain"
)

// The discovery protocol and per-message key agreement share one group: the
// prime-order subgroup of edwards25519. Scalar multiplication by independent
// secrets commutes there, and every non-zero scalar is invertible modulo the
// group order.

var (
	// ErrInvalidPoint rejects encodings that are not canonical, are the
	// identity, or carry a small-order component.
	ErrInvalidPoint = errors.New("invalid group element")
	// ErrInvalidScalar rejects non-canonical or zero scalars.
	ErrInvalidScalar = errors.New("invalid scalar")
)

var (
	zeroScalar     = edwards25519.NewScalar()
	minusOneScalar = edwards25519.NewScalar().Negate(mustScalar(1))
)

func mustScalar(v byte) *edwards25519.Scalar {
	var b [32]byte
	b[0] = v
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	if err != nil {
		panic(err)
	}
	return s
}

// GenerateGroupKey returns a fresh keypair for role.
func GenerateGroupKey(role domain.Role) (domain.GroupKeyPair, error) {
	k, err := RandomScalar(rand.Reader)
	if err != nil {
		return domain.GroupKeyPair{}, err
	}
	return GroupKeyFromScalar(role, k)
}

// GroupKeyFromScalar derives the public half for the private scalar k.
func GroupKeyFromScalar(role domain.Role, k domain.Scalar) (domain.GroupKeyPair, error) {
	pub, err := ScalarBaseMult(k)
	if err != nil {
		return domain.GroupKeyPair{}, err
	}
	return domain.GroupKeyPair{Role: role, Public: pub, Private: k}, nil
}

// RandomScalar draws a uniformly random non-zero scalar from r.
func RandomScalar(r io.Reader) (domain.Scalar, error) {
	var wide [64]byte
	for {
		if _, err := io.ReadFull(r, wide[:]); err != nil {
			return domain.Scalar{}, err
		}
		k, err := ScalarFromUniform(wide[:])
		if errors.Is(err, ErrInvalidScalar) {
			continue
		}
		return k, err
	}
}

// ScalarFromUniform reduces 64 uniform bytes to a non-zero scalar.
func ScalarFromUniform(wide []byte) (domain.Scalar, error) {
	s, err := edwards25519.NewScalar().SetUniformBytes(wide)
	if err != nil {
		return domain.Scalar{}, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	if s.Equal(zeroScalar) == 1 {
		return domain.Scalar{}, ErrInvalidScalar
	}
	var out domain.Scalar
	copy(out[:], s.Bytes())
	return out, nil
}

// ValidatePoint reports whether p is a canonical, non-identity element of the
// prime-order subgroup.
func ValidatePoint(p domain.Point) error {
	_, err := parsePoint(p)
	return err
}

// ScalarBaseMult returns k·G.
func ScalarBaseMult(k domain.Scalar) (domain.Point, error) {
	s, err := parseScalar(k)
	if err != nil {
		return domain.Point{}, err
	}
	return encodePoint(edwards25519.NewIdentityPoint().ScalarBaseMult(s)), nil
}

// ScalarMult returns k·p.
func ScalarMult(k domain.Scalar, p domain.Point) (domain.Point, error) {
	out, err := ScalarMultAll(k, []domain.Point{p})
	if err != nil {
		return domain.Point{}, err
	}
	return out[0], nil
}

// ScalarMultAll returns k·p for every p, parsing k once.
func ScalarMultAll(k domain.Scalar, ps []domain.Point) ([]domain.Point, error) {
	s, err := parseScalar(k)
	if err != nil {
		return nil, err
	}
	return multAll(s, ps)
}

// InvScalarMultAll returns k⁻¹·p for every p, inverting k once.
func InvScalarMultAll(k domain.Scalar, ps []domain.Point) ([]domain.Point, error) {
	s, err := parseScalar(k)
	if err != nil {
		return nil, err
	}
	return multAll(edwards25519.NewScalar().Invert(s), ps)
}

// InvertScalar returns k⁻¹ modulo the group order.
func InvertScalar(k domain.Scalar) (domain.Scalar, error) {
	s, err := parseScalar(k)
	if err != nil {
		return domain.Scalar{}, err
	}
	var out domain.Scalar
	copy(out[:], edwards25519.NewScalar().Invert(s).Bytes())
	return out, nil
}

// DH computes the shared element priv·pub and returns its encoding.
func DH(priv domain.Scalar, pub domain.Point) ([32]byte, error) {
	p, err := ScalarMult(priv, pub)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(p), nil
}

func multAll(s *edwards25519.Scalar, ps []domain.Point) ([]domain.Point, error) {
	out := make([]domain.Point, len(ps))
	for i := range ps {
		p, err := parsePoint(ps[i])
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = encodePoint(edwards25519.NewIdentityPoint().ScalarMult(s, p))
	}
	return out, nil
}

func parseScalar(k domain.Scalar) (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}
	if s.Equal(zeroScalar) == 1 {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

// parsePoint can take in adversarial input.
func parsePoint(b domain.Point) (*edwards25519.Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(b[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	// SetBytes accepts non-canonical y; matching is done on encodings.
	if encodePoint(p) != b {
		return nil, ErrInvalidPoint
	}
	if p.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return nil, ErrInvalidPoint
	}
	// (l-1)·p == -p holds only when p has no small-order component.
	neg := edwards25519.NewIdentityPoint().Negate(p)
	if edwards25519.NewIdentityPoint().ScalarMult(minusOneScalar, p).Equal(neg) != 1 {
		return nil, ErrInvalidPoint
	}
	return p, nil
}

func encodePoint(p *edwards25519.Point) domain.Point {
	var out domain.Point
	copy(out[:], p.Bytes())
	return out
}
