package aggregator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no comments", in: `{"a": 1}`, want: `{"a": 1}`},
		{name: "block", in: "/*__@ignore__*/{\"a\": /* one */ 1}", want: `{"a":  1}`},
		{name: "line", in: "{\n  \"a\": 1 // one\n}", want: "{\n  \"a\": 1 \n}"},
		{name: "line at eof", in: "{} // tail", want: "{} "},
		{name: "url in string", in: `{"u": "https://x.io/*path*/"}`, want: `{"u": "https://x.io/*path*/"}`},
		{name: "escaped quote", in: `{"q": "say \"//hi\""} // c`, want: `{"q": "say \"//hi\""} `},
		{name: "unterminated block", in: `{} /* open`, want: `{} `},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, StripComments(tt.in))
		})
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()

	require.Equal(t, `{"title":"HelloWorld"}`, Compact("{\n\t\"title\": \"Hello World\"\r\n}"))
	require.Equal(t, "{}", Compact(" { } "))
}
