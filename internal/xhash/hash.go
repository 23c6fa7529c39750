// Package xhash implements the engine's content-hashing scheme: a canonical
// (map-order-independent) CBOR encoding of an Object's content, digested
// with Blake2s-256 and rendered as base58 (Bitcoin alphabet). Grounded on
// two teacher techniques from core/planfmt: canonical.go's
// cbor.CanonicalEncOptions() encode-then-hash pipeline, and plan.go's
// "blake2<x>:" style digest construction — generalised from the teacher's
// blake2b/sha256 pair to the Blake2s-256 the pipeline-record hash requires.
package xhash

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2s"

	"github.com/xlake-project/xlake/internal/value"
)

// Hash is the canonical on-disk/record identifier: a base58 string wrapping
// a Blake2s-256 digest. Anything exposing a canonical byte view is
// hashable.
type Hash string

func (h Hash) String() string { return string(h) }

// Hashable is satisfied by anything with a stable, canonical byte
// representation suitable for content addressing.
type Hashable interface {
	CanonicalBytes() ([]byte, error)
}

// BytesHashable wraps a raw byte slice; its canonical form is itself.
type BytesHashable []byte

func (b BytesHashable) CanonicalBytes() ([]byte, error) { return []byte(b), nil }

// StringHashable wraps a string; its canonical form is its UTF-8 bytes.
type StringHashable string

func (s StringHashable) CanonicalBytes() ([]byte, error) { return []byte(s), nil }

// ObjectHashable wraps an Object; its canonical form is produced by
// canonicalEncMode, a deterministic CBOR encoding independent of Go's map
// iteration order.
type ObjectHashable struct{ Object *value.Object }

func (o ObjectHashable) CanonicalBytes() ([]byte, error) {
	return canonicalEncode(o.Object)
}

var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		// CanonicalEncOptions() is a fixed, library-validated option set;
		// EncMode() can only fail on invalid options.
		panic(fmt.Sprintf("xhash: invalid canonical cbor options: %v", err))
	}
	return mode
}()

// canonicalEncode produces a byte-stable encoding of an Object's content.
// The entries pass through a Go map, so insertion order plays no part; the
// stable key order comes from CBOR's canonical map-key ordering (shorter
// keys first, then bytewise).
func canonicalEncode(o *value.Object) ([]byte, error) {
	ordered := make(map[string]any, o.Len())
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		ordered[k] = cborValue(v)
	}
	return canonicalEncMode.Marshal(ordered)
}

// cborValue converts a value.Value into a plain Go value CBOR can encode,
// preserving the fixed/dynamic number and binary/string distinctions.
func cborValue(v value.Value) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindNumber:
		return v.Number.String()
	case value.KindBinary:
		return v.Binary
	case value.KindString:
		return v.String
	default:
		return nil
	}
}

// Digest hashes data directly (used for hashing raw bytes or strings
// through Hashable, without going through an Object).
func Digest(h Hashable) (Hash, error) {
	canon, err := h.CanonicalBytes()
	if err != nil {
		return "", fmt.Errorf("xhash: canonical encoding: %w", err)
	}
	sum := blake2s.Sum256(canon)
	return Hash(encodeBase58(sum[:])), nil
}

// HashObject hashes an Object's content wholesale through its canonical CBOR
// encoding. The built-in sources hash raw field bytes through Digest instead.
func HashObject(o *value.Object) (Hash, error) {
	return Digest(ObjectHashable{Object: o})
}
