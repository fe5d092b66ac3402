// Package numeric holds the integer primitives shared by the decoders and the projector.
// Every 256-bit quantity read from a log is parsed exactly once, as unsigned big-endian,
// and rendered exactly once, as base-10 text.
package numeric

import (
	"strconv"

	"github.com/holiman/uint256"
	"golang.org/x/xerrors"
)

const WordSize = 32

var (
	ErrWordTooLong   = xerrors.New("word longer than 32 bytes")
	ErrInvalidNumber = xerrors.New("invalid unsigned decimal")
)

// ParseUint256 interprets b as an unsigned big-endian integer of at most 32 bytes.
func ParseUint256(b []byte) (*uint256.Int, error) {
	if len(b) > WordSize {
		return nil, xerrors.Errorf("failed to parse %d bytes: %w", len(b), ErrWordTooLong)
	}

	return new(uint256.Int).SetBytes(b), nil
}

// FormatDecimal renders v in base 10 without sign or leading zeros.
func FormatDecimal(v *uint256.Int) string {
	if v == nil {
		return "0"
	}

	return v.Dec()
}

func FormatUint64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// WordToDecimal is ParseUint256 followed by FormatDecimal.
func WordToDecimal(b []byte) (string, error) {
	v, err := ParseUint256(b)
	if err != nil {
		return "", err
	}

	return FormatDecimal(v), nil
}

// ParseDecimal is the inverse of FormatDecimal.
func ParseDecimal(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, ErrInvalidNumber
	}

	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse %q: %v: %w", s, err, ErrInvalidNumber)
	}

	return v, nil
}
