package directive

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("module not found")

type mapLibrary map[string]string

func (m mapLibrary) Lookup(name string) (string, error) {
	content, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errMissing, name)
	}
	return content, nil
}

func TestProcessSubstitutesAliasAndAccount(t *testing.T) {
	t.Parallel()

	in := "const a = '/*__@replace:test__*/'; const b = '/*__@creatorAccount__*/';"
	res, err := Process(in, map[string]string{"test": "testAlias"}, "testAccount", mapLibrary{})
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.Equal(t, "const a = 'testAlias'; const b = 'testAccount';", res.Text)
	require.Empty(t, Scan(res.Text))
}

func TestProcessIdentityWithoutMarkers(t *testing.T) {
	t.Parallel()

	in := "export default function Widget() { return <p>/* a comment */</p>; }"
	res, err := Process(in, map[string]string{"x": "y"}, "acct", mapLibrary{})
	require.NoError(t, err)
	require.Equal(t, in, res.Text)
}

func TestProcessSkipWins(t *testing.T) {
	t.Parallel()

	in := "/*__@replace:test__*/ /*__@import:missing__*/ /*__@skip__*/"
	res, err := Process(in, map[string]string{"test": "x"}, "acct", mapLibrary{})
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Equal(t, in, res.Text)
}

func TestProcessLeavesUnknownAliasAndUnsetAccount(t *testing.T) {
	t.Parallel()

	in := "/*__@replace:other__*/ /*__@creatorAccount__*/"
	res, err := Process(in, map[string]string{"test": "x"}, "", mapLibrary{})
	require.NoError(t, err)
	require.Equal(t, in, res.Text)
}

func TestProcessDoesNotRescanAliasValues(t *testing.T) {
	t.Parallel()

	aliases := map[string]string{
		"a": "/*__@replace:b__*/",
		"b": "B",
	}
	res, err := Process("/*__@replace:a__*/", aliases, "", mapLibrary{})
	require.NoError(t, err)
	require.Equal(t, "/*__@replace:b__*/", res.Text)
}

func TestProcessImports(t *testing.T) {
	t.Parallel()

	lib := mapLibrary{
		"module1": "module1 content",
		"outer":   "outer(/*__@import:inner__*/)",
		"inner":   "inner /*__@replace:test__*/",
		"loopA":   "/*__@import:loopB__*/",
		"loopB":   "/*__@import:loopA__*/",
	}

	t.Run("replaced exactly", func(t *testing.T) {
		t.Parallel()
		res, err := Process("before /*__@import:module1__*/ after", nil, "", lib)
		require.NoError(t, err)
		require.Equal(t, "before module1 content after", res.Text)
	})

	t.Run("repeated marker", func(t *testing.T) {
		t.Parallel()
		res, err := Process("/*__@import:module1__*/|/*__@import:module1__*/", nil, "", lib)
		require.NoError(t, err)
		require.Equal(t, "module1 content|module1 content", res.Text)
	})

	t.Run("nested imports resolve, other markers in modules stay literal", func(t *testing.T) {
		t.Parallel()
		res, err := Process("/*__@import:outer__*/", map[string]string{"test": "x"}, "", lib)
		require.NoError(t, err)
		require.Equal(t, "outer(inner /*__@replace:test__*/)", res.Text)
	})

	t.Run("missing module fails without output", func(t *testing.T) {
		t.Parallel()
		res, err := Process("/*__@replace:test__*/ /*__@import:nope__*/", map[string]string{"test": "x"}, "", lib)
		require.ErrorIs(t, err, errMissing)
		require.Contains(t, err.Error(), "nope")
		require.Equal(t, Result{}, res)
	})

	t.Run("cycle is an error", func(t *testing.T) {
		t.Parallel()
		_, err := Process("/*__@import:loopA__*/", nil, "", lib)
		require.ErrorIs(t, err, ErrImportCycle)
		require.Contains(t, err.Error(), "loopA -> loopB -> loopA")
	})

	t.Run("no library", func(t *testing.T) {
		t.Parallel()
		_, err := Process("/*__@import:module1__*/", nil, "", nil)
		require.Error(t, err)
	})
}

func TestSubstituteIsRestricted(t *testing.T) {
	t.Parallel()

	p := NewProcessor(map[string]string{"name": "World"}, "acct", nil)
	in := `/*__@skip__*/ {"greeting": "Hello /*__@replace:name__*/", "by": "/*__@creatorAccount__*/"} /*__@import:x__*/`
	want := `/*__@skip__*/ {"greeting": "Hello World", "by": "acct"} /*__@import:x__*/`
	require.Equal(t, want, p.Substitute(in))
}
