package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func kw(word string) Term    { return Term{Kind: KeywordTerm, Keyword: word} }
func choice(words ...string) Term {
	return Term{Kind: ChoiceTerm, Choices: words}
}
func option(words ...string) Term {
	return Term{Kind: OptionTerm, Choices: words}
}
func arg(names ...string) Term {
	targets := make([]ArgumentTarget, len(names))
	for i, n := range names {
		targets[i] = ArgumentTarget{Name: n}
	}
	return Term{Kind: ArgumentTerm, Targets: targets}
}

func TestSignatureIsValid(t *testing.T) {
	require.True(t, Signature{Terms: []Term{kw("put"), arg("value")}}.IsValid())
	require.False(t, Signature{Terms: []Term{arg("value")}}.IsValid())
}

func TestSignatureNormalizedName(t *testing.T) {
	sig := Signature{Terms: []Term{
		kw("put"),
		arg("value"),
		kw("into"),
		choice("the", "a"),
		arg("target"),
	}}
	require.Equal(t, "put {} into a/the {}", sig.NormalizedName())

	withOption := Signature{Terms: []Term{kw("sort"), option("descending", "reverse")}}
	require.Equal(t, "sort (descending/reverse)", withOption.NormalizedName())
}

func TestTrieInsertAndMatch(t *testing.T) {
	trie := NewTrie()
	sig1 := Signature{Terms: []Term{kw("put"), arg("value"), kw("into"), arg("target")}}
	require.NoError(t, trie.Insert(sig1))

	c := trie.Root()
	c, ok := c.Keyword("put")
	require.True(t, ok)
	require.True(t, c.HasArgument())

	c = c.Argument()
	c, ok = c.Keyword("into")
	require.True(t, ok)
	require.True(t, c.HasArgument())

	c = c.Argument()
	got, ok := c.Terminal()
	require.True(t, ok)
	require.Equal(t, sig1.NormalizedName(), got.NormalizedName())
}

func TestTrieDuplicateSignature(t *testing.T) {
	trie := NewTrie()
	sig := Signature{Terms: []Term{kw("stop")}}
	require.NoError(t, trie.Insert(sig))
	require.Error(t, trie.Insert(sig))
}

func TestTrieInvalidSignatureRejected(t *testing.T) {
	trie := NewTrie()
	require.Error(t, trie.Insert(Signature{Terms: []Term{arg("x")}}))
}

func TestTrieOptionBothEdges(t *testing.T) {
	trie := NewTrie()
	sig := Signature{Terms: []Term{kw("sort"), option("descending"), kw("now")}}
	require.NoError(t, trie.Insert(sig))

	// "with" path: sort descending now
	c := trie.Root()
	c, ok := c.Keyword("sort")
	require.True(t, ok)
	withOpt, ok := c.Keyword("descending")
	require.True(t, ok)
	withOpt, ok = withOpt.Keyword("now")
	require.True(t, ok)
	_, ok = withOpt.Terminal()
	require.True(t, ok)

	// "without" path: sort now
	without, ok := c.Keyword("now")
	require.True(t, ok)
	_, ok = without.Terminal()
	require.True(t, ok)
}

func TestTrieSharedPrefixLongestMatch(t *testing.T) {
	trie := NewTrie()
	short := Signature{Terms: []Term{kw("go"), kw("home")}}
	long := Signature{Terms: []Term{kw("go"), kw("home"), kw("now")}}
	require.NoError(t, trie.Insert(short))
	require.NoError(t, trie.Insert(long))

	c := trie.Root()
	c, ok := c.Keyword("go")
	require.True(t, ok)
	c, ok = c.Keyword("home")
	require.True(t, ok)
	_, ok = c.Terminal()
	require.True(t, ok, "shorter signature should terminate here")

	c2, ok := c.Keyword("now")
	require.True(t, ok)
	_, ok = c2.Terminal()
	require.True(t, ok, "longer signature should also be reachable")
}
