package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestPlainText_StripsMarkup(t *testing.T) {
	in := "# Title\n**bold** and *italic* with `code`, a [link](https://x.io) and <b>html</b>"
	require.Equal(t, "Title bold and italic with code, a link and html", PlainText(in))
}

func TestExcerpt_ShortReturnedAsIs(t *testing.T) {
	in := "## Intro\nShort text."
	require.Equal(t, "Intro Short text.", Excerpt(in))
}

func TestExcerpt_LongTruncated(t *testing.T) {
	in := strings.Repeat("abcd ", 60) // 300 символов
	got := Excerpt(in)

	require.True(t, strings.HasSuffix(got, "..."))
	require.LessOrEqual(t, utf8.RuneCountInString(got), ExcerptMaxLength)
	require.True(t, strings.HasPrefix(got, "abcd abcd"))
}

func TestExcerpt_ExactlyThresholdKept(t *testing.T) {
	in := strings.Repeat("x", ExcerptMaxLength)
	require.Equal(t, in, Excerpt(in))
}

func TestExcerpt_CutsOnRuneBoundary(t *testing.T) {
	in := strings.Repeat("ж", 200)
	got := Excerpt(in)

	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("ж", 147)+"...", got)
}

func TestExcerpt_InvalidUTF8Degrades(t *testing.T) {
	got := Excerpt("ok \xff\xfe text")
	require.True(t, utf8.ValidString(got))
	require.Equal(t, "ok  text", got)
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"empty", 0, 1},
		{"one word", 1, 1},
		{"exactly 200", 200, 1},
		{"201 words", 201, 2},
		{"400 words", 400, 2},
		{"401 words", 401, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := strings.TrimSpace(strings.Repeat("word ", tt.words))
			require.Equal(t, tt.want, ReadingTime(in))
		})
	}
}

func TestReadingTime_AtLeastOneForLongContent(t *testing.T) {
	// контент >= 50 символов без пробелов — одно "слово"
	require.GreaterOrEqual(t, ReadingTime(strings.Repeat("a", 50)), 1)
	require.GreaterOrEqual(t, ReadingTime(strings.Repeat(" \n\t", 50)), 1)
}
