package ident_test

import (
	"testing"

	"github.com/conceptgraph/graphvc/pkg/ident"
	"github.com/stretchr/testify/require"
)

type fixedIdentity []byte

func (f fixedIdentity) Identity() []byte { return f }

func TestContentAddress_Deterministic(t *testing.T) {
	entity := fixedIdentity("some stable content")
	first := ident.ContentAddress(entity)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, ident.ContentAddress(entity))
	}
	require.Len(t, first, 64) // hex sha256
}

func TestContentAddress_Distinct(t *testing.T) {
	a := ident.ContentAddress(fixedIdentity("a"))
	b := ident.ContentAddress(fixedIdentity("b"))
	require.NotEqual(t, a, b)
}

func TestAddressWriter_LengthPrefix(t *testing.T) {
	left := ident.NewAddressWriter().MarshalString("ab").MarshalString("c")
	right := ident.NewAddressWriter().MarshalString("a").MarshalString("bc")
	require.NotEqual(t, left.Identity(), right.Identity())
}

func TestAddressWriter_MapKeyOrder(t *testing.T) {
	left := ident.NewAddressWriter().MarshalStringMap(map[string]string{"x": "1", "y": "2"})
	right := ident.NewAddressWriter().MarshalStringMap(map[string]string{"y": "2", "x": "1"})
	require.Equal(t, left.Identity(), right.Identity())
}

func TestAddressWriter_SliceOrderSignificant(t *testing.T) {
	left := ident.NewAddressWriter().MarshalStringSlice([]string{"a", "b"})
	right := ident.NewAddressWriter().MarshalStringSlice([]string{"b", "a"})
	require.NotEqual(t, left.Identity(), right.Identity())
}

func TestHexAddressProvider(t *testing.T) {
	provider := ident.NewHexAddressProvider()
	entity := fixedIdentity("content")
	require.Equal(t, ident.ContentAddress(entity), provider.ContentAddress(entity))
}
