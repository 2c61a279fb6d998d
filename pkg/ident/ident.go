package ident

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// Identifiable is an entity that can produce a canonical byte representation
// of itself. Two entities with equal logical content must produce identical
// Identity bytes.
type Identifiable interface {
	Identity() []byte
}

// AddressProvider computes a content address for an Identifiable entity.
type AddressProvider interface {
	ContentAddress(entity Identifiable) string
}

// HexAddressProvider is the default AddressProvider: hex-encoded SHA-256 of
// the entity's Identity bytes.
type HexAddressProvider struct{}

func NewHexAddressProvider() *HexAddressProvider {
	return &HexAddressProvider{}
}

func (*HexAddressProvider) ContentAddress(entity Identifiable) string {
	return ContentAddress(entity)
}

func ContentAddress(entity Identifiable) string {
	h := sha256.New()
	_, _ = h.Write(entity.Identity())
	return hex.EncodeToString(h.Sum(nil))
}

// AddressWriter accumulates a canonical binary encoding of a structured
// record. Every value is length-prefixed so that the concatenation of two
// writes is never ambiguous ("ab","c" encodes differently from "a","bc").
// Map keys are written in sorted order; slices keep insertion order since
// ordering is semantically significant for commit changes and parents.
type AddressWriter struct {
	buf []byte
}

func NewAddressWriter() *AddressWriter {
	return &AddressWriter{buf: make([]byte, 0)}
}

func (b *AddressWriter) marshalInt64(v int64) {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(v))
	b.buf = append(b.buf, bytes...)
}

func (b *AddressWriter) MarshalInt64(v int64) *AddressWriter {
	b.marshalInt64(8)
	b.marshalInt64(v)
	return b
}

func (b *AddressWriter) MarshalBytes(v []byte) *AddressWriter {
	b.marshalInt64(int64(len(v)))
	b.buf = append(b.buf, v...)
	return b
}

func (b *AddressWriter) MarshalString(v string) *AddressWriter {
	return b.MarshalBytes([]byte(v))
}

func (b *AddressWriter) MarshalStringSlice(v []string) *AddressWriter {
	b.marshalInt64(int64(len(v)))
	for _, s := range v {
		b.MarshalString(s)
	}
	return b
}

func (b *AddressWriter) MarshalStringMap(v map[string]string) *AddressWriter {
	b.marshalInt64(int64(len(v)))
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.MarshalString(k)
		b.MarshalString(v[k])
	}
	return b
}

func (b *AddressWriter) MarshalIdentifiable(v Identifiable) *AddressWriter {
	return b.MarshalBytes(v.Identity())
}

func (b *AddressWriter) MarshalIdentifiableSlice(v []Identifiable) *AddressWriter {
	b.marshalInt64(int64(len(v)))
	for _, e := range v {
		b.MarshalIdentifiable(e)
	}
	return b
}

func (b *AddressWriter) Identity() []byte {
	return b.buf
}
