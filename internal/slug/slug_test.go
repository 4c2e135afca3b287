package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,48}[a-z0-9])?$`)

func TestGenerate_Examples(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation and digits", "Hello, World! 2024", "hello-world-2024"},
		{"apostrophe removed", "Don't Stop", "dont-stop"},
		{"whitespace collapsed", "  many   spaces\tand\nlines ", "many-spaces-and-lines"},
		{"hyphen runs collapsed", "a -- b", "a-b"},
		{"diacritics folded", "Café Crème", "cafe-creme"},
		{"non-latin only", "Привет", Fallback},
		{"empty", "", Fallback},
		{"only punctuation", "!!! ???", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Generate(tt.title))
		})
	}
}

func TestGenerate_TruncatesWithoutTrailingHyphen(t *testing.T) {
	// 49 символов + пробел: после обрезки до 50 на конце оказался бы дефис.
	title := strings.Repeat("a", 49) + " bcd"
	got := Generate(title)

	require.Equal(t, strings.Repeat("a", 49), got)
	require.LessOrEqual(t, len(got), MaxLength)
}

func TestGenerate_AlwaysMatchesFormat(t *testing.T) {
	titles := []string{
		"Hello, World! 2024",
		"---leading and trailing---",
		strings.Repeat("word ", 40),
		"Ünïcödé — dash & ampersand",
		"  ",
		"123",
		"a",
		"Привет мир 2024",
		"!!a!!",
	}

	for _, title := range titles {
		got := Generate(title)
		require.Regexp(t, slugRe, got, "title=%q", title)
		require.Equal(t, got, Generate(title), "deterministic")
	}
}

func TestWithSuffix(t *testing.T) {
	require.Equal(t, "post", WithSuffix("post", 1))
	require.Equal(t, "post-2", WithSuffix("post", 2))

	long := strings.Repeat("x", 50)
	got := WithSuffix(long, 12)
	require.Len(t, got, MaxLength)
	require.True(t, strings.HasSuffix(got, "-12"))

	// обрезка base не должна оставлять двойной дефис
	base := strings.Repeat("a", 46) + "-bcd"
	got = WithSuffix(base, 3)
	require.Regexp(t, slugRe, got)
	require.NotContains(t, got, "--")
}

func TestResolve_PicksFirstFree(t *testing.T) {
	taken := map[string]bool{"hello-world": true, "hello-world-2": true}
	var asked []string

	got, err := Resolve(context.Background(), "Hello World", func(_ context.Context, s string) (bool, error) {
		asked = append(asked, s)
		return taken[s], nil
	}, 5)

	require.NoError(t, err)
	require.Equal(t, "hello-world-3", got)
	require.Equal(t, []string{"hello-world", "hello-world-2", "hello-world-3"}, asked)
}

func TestResolve_Exhausted(t *testing.T) {
	_, err := Resolve(context.Background(), "x", func(context.Context, string) (bool, error) {
		return true, nil
	}, 3)

	require.ErrorIs(t, err, ErrExhausted)
}

func TestResolve_CheckerError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Resolve(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	}, 3)

	require.ErrorIs(t, err, boom)
}
