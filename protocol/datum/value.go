// Package datum decodes the structured data attached to ledger records into
// typed domain records. A single address hosts multiple record kinds side by
// side, so decoding is defensive: a candidate whose data does not fit the
// requested schema is "not a match", reported via ErrSchemaMismatch, never a
// fatal error.
package datum

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// ErrSchemaMismatch marks structured data that belongs to a different record
// kind. Scans skip these candidates; every other failure class propagates.
var ErrSchemaMismatch = errors.New("structured data does not match schema")

// IsSchemaMismatch reports whether err means "candidate of another kind".
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

func mismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrSchemaMismatch)
}

// Value is one node of a Plutus JSON datum, as served by the indexer:
//
//	{"constructor": 0, "fields": [...]}
//	{"int": 42}
//	{"bytes": "deadbeef"}
//	{"list": [...]}
type Value struct {
	Constructor *int64   `json:"constructor,omitempty"`
	Fields      []Value  `json:"fields,omitempty"`
	Int         *big.Int `json:"int,omitempty"`
	Bytes       *string  `json:"bytes,omitempty"`
	List        []Value  `json:"list,omitempty"`
}

// Parse unmarshals raw structured data into a Value tree.
func Parse(raw json.RawMessage) (*Value, error) {
	if len(raw) == 0 {
		return nil, mismatch("no structured data")
	}
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, mismatch("not plutus json: %v", err)
	}
	return &v, nil
}

// constr asserts the node is a constructor with the given tag and exactly n
// fields, returning them.
func (v *Value) constr(tag int64, n int) ([]Value, error) {
	if v.Constructor == nil {
		return nil, mismatch("expected constructor %d, got non-constructor", tag)
	}
	if *v.Constructor != tag {
		return nil, mismatch("expected constructor %d, got %d", tag, *v.Constructor)
	}
	if len(v.Fields) != n {
		return nil, mismatch("constructor %d: expected %d fields, got %d", tag, n, len(v.Fields))
	}
	return v.Fields, nil
}

// tag returns the constructor tag, or a mismatch error for leaf nodes.
func (v *Value) tag() (int64, error) {
	if v.Constructor == nil {
		return 0, mismatch("expected constructor node")
	}
	return *v.Constructor, nil
}

// bigInt asserts the node is an integer.
func (v *Value) bigInt() (*big.Int, error) {
	if v.Int == nil {
		return nil, mismatch("expected int field")
	}
	return v.Int, nil
}

// int64Val asserts the node is an integer that fits in int64.
func (v *Value) int64Val() (int64, error) {
	n, err := v.bigInt()
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, mismatch("int field out of int64 range")
	}
	return n.Int64(), nil
}

// hexBytes asserts the node is a bytes field and returns its hex form.
func (v *Value) hexBytes() (string, error) {
	if v.Bytes == nil {
		return "", mismatch("expected bytes field")
	}
	if _, err := hex.DecodeString(*v.Bytes); err != nil {
		return "", mismatch("bytes field is not hex")
	}
	return *v.Bytes, nil
}

// utf8Bytes asserts a bytes field and decodes it as UTF-8 text.
func (v *Value) utf8Bytes() (string, error) {
	h, err := v.hexBytes()
	if err != nil {
		return "", err
	}
	b, _ := hex.DecodeString(h)
	return string(b), nil
}

// tokenClass decodes constr 0 [bytes policy, bytes name].
func (v *Value) tokenClass() (TokenClass, error) {
	fields, err := v.constr(0, 2)
	if err != nil {
		return TokenClass{}, err
	}
	policy, err := fields[0].hexBytes()
	if err != nil {
		return TokenClass{}, err
	}
	name, err := fields[1].hexBytes()
	if err != nil {
		return TokenClass{}, err
	}
	return TokenClass{PolicyID: policy, TokenName: name}, nil
}
