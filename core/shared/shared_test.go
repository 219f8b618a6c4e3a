package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "single", in: "hello.txt", want: []string{"hello.txt"}},
		{name: "nested", in: "Layout/Modal/index.jsx", want: []string{"Layout", "Modal", "index.jsx"}},
		{name: "backslashes", in: `Layout\Modal\index.jsx`, want: []string{"Layout", "Modal", "index.jsx"}},
		{name: "dot prefix", in: "./data/a.txt", want: []string{"data", "a.txt"}},
		{name: "empty", in: ".", want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, SplitPath(tt.in))
		})
	}
}

func TestTrimExt(t *testing.T) {
	t.Parallel()

	require.Equal(t, "config.en", TrimExt("config.en.jsonc"))
	require.Equal(t, "hello", TrimExt("hello.txt"))
	require.Equal(t, "README", TrimExt("README"))
	require.Equal(t, ".hidden", TrimExt(".hidden"))
}

func TestToTitle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Widget", ToTitle("widget"))
	require.Equal(t, "", ToTitle(""))
}
