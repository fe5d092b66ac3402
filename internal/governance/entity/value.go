package entity

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/utils/numeric"
)

type (
	ValueKind int32

	// Value is a typed attribute value. Exactly one variant is set, as reported by Kind.
	Value struct {
		kind        ValueKind
		str         string
		int32       int32
		boolean     bool
		bytes       []byte
		stringArray []string
	}

	valueJSON struct {
		String      *string   `json:"string,omitempty"`
		BigInt      *string   `json:"bigInt,omitempty"`
		Int32       *int32    `json:"int32,omitempty"`
		Bool        *bool     `json:"bool,omitempty"`
		Bytes       *string   `json:"bytes,omitempty"`
		StringArray *[]string `json:"stringArray,omitempty"`
	}
)

const (
	ValueKindUnspecified ValueKind = iota
	ValueKindString
	ValueKindBigInt
	ValueKindInt32
	ValueKindBool
	ValueKindBytes
	ValueKindStringArray
)

var valueKindNames = map[ValueKind]string{
	ValueKindUnspecified: "UNSPECIFIED",
	ValueKindString:      "STRING",
	ValueKindBigInt:      "BIG_INT",
	ValueKindInt32:       "INT32",
	ValueKindBool:        "BOOL",
	ValueKindBytes:       "BYTES",
	ValueKindStringArray: "STRING_ARRAY",
}

func (k ValueKind) String() string {
	if name, ok := valueKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

func StringValue(s string) Value {
	return Value{kind: ValueKindString, str: s}
}

// BigIntValue accepts only the base-10 text of a non-negative integer of at most 256 bits.
func BigIntValue(s string) (Value, error) {
	v, err := numeric.ParseDecimal(s)
	if err != nil {
		return Value{}, xerrors.Errorf("invalid big int %q: %w", s, ErrInvalidValue)
	}

	return Value{kind: ValueKindBigInt, str: numeric.FormatDecimal(v)}, nil
}

func BigIntFromUint64(v uint64) Value {
	return Value{kind: ValueKindBigInt, str: numeric.FormatUint64(v)}
}

func Int32Value(v int32) Value {
	return Value{kind: ValueKindInt32, int32: v}
}

func BoolValue(v bool) Value {
	return Value{kind: ValueKindBool, boolean: v}
}

func BytesValue(v []byte) Value {
	return Value{kind: ValueKindBytes, bytes: append([]byte{}, v...)}
}

// StringArrayValue never encodes as null; a nil slice becomes an empty array.
func StringArrayValue(v []string) Value {
	return Value{kind: ValueKindStringArray, stringArray: append([]string{}, v...)}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsZero() bool {
	return v.kind == ValueKindUnspecified
}

// AsString returns the text of a String or BigInt value.
func (v Value) AsString() (string, bool) {
	if v.kind != ValueKindString && v.kind != ValueKindBigInt {
		return "", false
	}
	return v.str, true
}

func (v Value) AsInt32() (int32, bool) {
	return v.int32, v.kind == ValueKindInt32
}

func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.kind == ValueKindBool
}

func (v Value) AsBytes() ([]byte, bool) {
	return v.bytes, v.kind == ValueKindBytes
}

func (v Value) AsStringArray() ([]string, bool) {
	return v.stringArray, v.kind == ValueKindStringArray
}

func (v Value) MarshalJSON() ([]byte, error) {
	var out valueJSON
	switch v.kind {
	case ValueKindString:
		out.String = &v.str
	case ValueKindBigInt:
		out.BigInt = &v.str
	case ValueKindInt32:
		out.Int32 = &v.int32
	case ValueKindBool:
		out.Bool = &v.boolean
	case ValueKindBytes:
		encoded := hexutil.Encode(v.bytes)
		out.Bytes = &encoded
	case ValueKindStringArray:
		arr := v.stringArray
		if arr == nil {
			arr = []string{}
		}
		out.StringArray = &arr
	default:
		return nil, xerrors.Errorf("cannot marshal value of kind %v: %w", v.kind, ErrInvalidValue)
	}

	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return xerrors.Errorf("failed to unmarshal value: %w", err)
	}

	var err error
	switch {
	case in.String != nil:
		*v = StringValue(*in.String)
	case in.BigInt != nil:
		*v, err = BigIntValue(*in.BigInt)
	case in.Int32 != nil:
		*v = Int32Value(*in.Int32)
	case in.Bool != nil:
		*v = BoolValue(*in.Bool)
	case in.Bytes != nil:
		var b []byte
		b, err = hexutil.Decode(*in.Bytes)
		*v = BytesValue(b)
	case in.StringArray != nil:
		*v = StringArrayValue(*in.StringArray)
	default:
		err = xerrors.Errorf("value has no variant set: %w", ErrInvalidValue)
	}

	return err
}
