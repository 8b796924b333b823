package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		require.NotEmpty(t, k.String())
	}
}

func TestLookupKeyword(t *testing.T) {
	require.Equal(t, IF, LookupKeyword("if"))
	require.Equal(t, IF, LookupKeyword("IF"[:0]+"if")) // lowercased input only
	require.Equal(t, WORD, LookupKeyword("notakeyword"))
	require.True(t, IsKeyword("repeat"))
	require.False(t, IsKeyword("repeatx"))
}

func TestTokenString(t *testing.T) {
	tok := Token{Kind: WORD, Text: "foo"}
	require.Equal(t, "foo", tok.String())

	tok2 := Token{Kind: IF}
	require.Equal(t, "if", tok2.String())
}
