// Package canonical produces the deterministic byte form of event records and
// the Keccak-256 commitment published on-chain.
//
// Encoding: null for nil, JSON literals for strings, numbers and booleans,
// arrays in order, objects with keys sorted by code point, no whitespace.
// Go values are first projected through encoding/json so struct tags, not
// field order, decide the keys.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/okian/turforacle/internal/domain/model"
)

// Commitment is the canonical form of an event and its hash.
type Commitment struct {
	Canonical string      `json:"canonical"`
	Hash      common.Hash `json:"hash"`
}

// Canonicalize returns the canonical string encoding of v.
func Canonicalize(v any) (string, error) {
	generic, err := project(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := encode(&buf, generic); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Hash returns the Keccak-256 digest of the canonical form of v.
func Hash(v any) (common.Hash, error) {
	s, err := Canonicalize(v)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(s)), nil
}

// Commit validates an event, then canonicalizes and hashes it.
func Commit(e model.Event) (Commitment, error) {
	if err := e.Validate(); err != nil {
		return Commitment{}, err
	}
	s, err := Canonicalize(e)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{Canonical: s, Hash: crypto.Keccak256Hash([]byte(s))}, nil
}

// Verify recomputes the commitment of e and compares it with a 0x-prefixed
// hex hash published elsewhere.
func Verify(e model.Event, hexHash string) (bool, error) {
	c, err := Commit(e)
	if err != nil {
		return false, err
	}
	want := strings.TrimSpace(hexHash)
	if !strings.HasPrefix(want, "0x") && !strings.HasPrefix(want, "0X") {
		want = "0x" + want
	}
	raw, err := hexutil.Decode(want)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if len(raw) != common.HashLength {
		return false, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedHash, common.HashLength, len(raw))
	}
	return c.Hash == common.BytesToHash(raw), nil
}

// project turns v into a tree of map[string]any, []any, string, bool,
// json.Number and nil.
func project(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, json.Number, map[string]any, []any:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return out, nil
}

func encode(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(t.String())
	case string:
		return encodeString(buf, t)
	case []any:
		buf.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encode(buf, el); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		// Byte order of UTF-8 strings is code-point order.
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encode(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		// Nested Go values inside a generic map or slice.
		p, err := project(t)
		if err != nil {
			return err
		}
		return encode(buf, p)
	}
	return nil
}

// encodeString writes a JSON string literal without HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}
