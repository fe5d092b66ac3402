// Package layout computes where each field of an event payload starts, from an ordered list of ABI-typed fields.
package layout

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/utils/numeric"
)

type (
	Field struct {
		Name string
		Type abi.Type
	}

	// Layout describes the head of an ABI-encoded payload.
	// Every dynamic field and every scalar occupies one word in the head;
	// static arrays and tuples occupy the sum of their elements.
	Layout struct {
		fields  []Field
		offsets map[string]int
		index   map[string]int
	}
)

var (
	ErrInvalidLayout     = xerrors.New("invalid layout")
	ErrPayloadOutOfRange = xerrors.New("payload out of range")
	ErrMalformedString   = xerrors.New("malformed string")

	stringArguments = mustArguments("string")
)

// New parses the ABI type of every field. names and types are parallel lists.
func New(names []string, types []string) (*Layout, error) {
	if len(names) != len(types) {
		return nil, xerrors.Errorf("names and types have different lengths (%v != %v): %w", len(names), len(types), ErrInvalidLayout)
	}

	if len(names) == 0 {
		return nil, xerrors.Errorf("layout has no field: %w", ErrInvalidLayout)
	}

	fields := make([]Field, len(names))
	for i, name := range names {
		if name == "" {
			return nil, xerrors.Errorf("field %v has no name: %w", i, ErrInvalidLayout)
		}

		typ, err := abi.NewType(types[i], "", nil)
		if err != nil {
			return nil, xerrors.Errorf("field %v has invalid type %q: %v: %w", name, types[i], err, ErrInvalidLayout)
		}

		fields[i] = Field{Name: name, Type: typ}
	}

	return FromFields(fields...)
}

func FromFields(fields ...Field) (*Layout, error) {
	l := &Layout{
		fields:  fields,
		offsets: make(map[string]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}

	offset := 0
	for i, field := range fields {
		if _, ok := l.index[field.Name]; ok {
			return nil, xerrors.Errorf("duplicate field %v: %w", field.Name, ErrInvalidLayout)
		}

		l.index[field.Name] = i
		l.offsets[field.Name] = offset
		offset += headSize(field.Type)
	}

	return l, nil
}

func (l *Layout) Fields() []Field {
	return l.fields
}

// HeadSize is the number of bytes taken by the head of the payload.
func (l *Layout) HeadSize() int {
	size := 0
	for _, field := range l.fields {
		size += headSize(field.Type)
	}
	return size
}

// Offset returns the position of the field's head within the payload.
func (l *Layout) Offset(name string) (int, bool) {
	offset, ok := l.offsets[name]
	return offset, ok
}

// Require checks that the field exists and has one of the given ABI kinds, such as abi.AddressTy.
func (l *Layout) Require(name string, kinds ...byte) error {
	i, ok := l.index[name]
	if !ok {
		return xerrors.Errorf("missing field %v: %w", name, ErrInvalidLayout)
	}

	typ := l.fields[i].Type
	for _, kind := range kinds {
		if typ.T == kind {
			return nil
		}
	}

	return xerrors.Errorf("field %v has unexpected type %v: %w", name, typ.String(), ErrInvalidLayout)
}

// Word returns the 32-byte head word of the field.
func (l *Layout) Word(data []byte, name string) ([]byte, error) {
	offset, ok := l.offsets[name]
	if !ok {
		return nil, xerrors.Errorf("missing field %v: %w", name, ErrInvalidLayout)
	}

	end := offset + numeric.WordSize
	if len(data) < end {
		return nil, xerrors.Errorf("field %v needs %v bytes, payload has %v: %w", name, end, len(data), ErrPayloadOutOfRange)
	}

	return data[offset:end], nil
}

// Address returns the right-most 20 bytes of the field's word.
func (l *Layout) Address(data []byte, name string) (common.Address, error) {
	word, err := l.Word(data, name)
	if err != nil {
		return common.Address{}, err
	}

	return common.BytesToAddress(word[numeric.WordSize-common.AddressLength:]), nil
}

func (l *Layout) Uint256(data []byte, name string) (*uint256.Int, error) {
	word, err := l.Word(data, name)
	if err != nil {
		return nil, err
	}

	return numeric.ParseUint256(word)
}

// Byte returns the i-th byte of the field's word.
func (l *Layout) Byte(data []byte, name string, i int) (byte, error) {
	if i < 0 || i >= numeric.WordSize {
		return 0, xerrors.Errorf("byte %v is outside of a word: %w", i, ErrPayloadOutOfRange)
	}

	word, err := l.Word(data, name)
	if err != nil {
		return 0, err
	}

	return word[i], nil
}

// String decodes an ABI string from the window of data starting at the field's head offset.
// The offset word inside the window is relative to the start of the window.
// Invalid UTF-8 sequences are replaced with U+FFFD.
func (l *Layout) String(data []byte, name string) (string, error) {
	if _, err := l.Word(data, name); err != nil {
		return "", err
	}

	offset := l.offsets[name]
	values, err := stringArguments.Unpack(data[offset:])
	if err != nil {
		return "", xerrors.Errorf("failed to decode field %v: %v: %w", name, err, ErrMalformedString)
	}

	s, ok := values[0].(string)
	if !ok {
		return "", xerrors.Errorf("field %v decoded to %T: %w", name, values[0], ErrMalformedString)
	}

	return strings.ToValidUTF8(s, "\uFFFD"), nil
}

func headSize(t abi.Type) int {
	if isDynamic(t) {
		return numeric.WordSize
	}

	switch t.T {
	case abi.ArrayTy:
		return t.Size * headSize(*t.Elem)
	case abi.TupleTy:
		size := 0
		for _, elem := range t.TupleElems {
			size += headSize(*elem)
		}
		return size
	default:
		return numeric.WordSize
	}
}

func isDynamic(t abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy:
		return true
	case abi.ArrayTy:
		return isDynamic(*t.Elem)
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if isDynamic(*elem) {
				return true
			}
		}
	}
	return false
}

func mustArguments(typ string) abi.Arguments {
	t, err := abi.NewType(typ, "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}
