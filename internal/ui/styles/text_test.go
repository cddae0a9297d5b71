package styles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "hello", Truncate("hello", 10))
	require.Equal(t, "hell…", Truncate("hello world", 5))
	require.Equal(t, "…", Truncate("hello", 1))
	require.Equal(t, "", Truncate("hello", 0))
}

func TestTruncate_DoesNotSplitGraphemes(t *testing.T) {
	// The flag is a two-rune cluster rendered two cells wide; it must be
	// kept or dropped whole.
	s := "ab\U0001F1EB\U0001F1F7cd"
	got := Truncate(s, 4)
	require.Equal(t, "ab…", got)
}

func TestWrap(t *testing.T) {
	got := Wrap("the quick brown fox", 10)
	require.Equal(t, "the quick\nbrown fox", got)
}
