// Package content выводит производные поля статьи из текста: анонс и время чтения.
// Обе функции чистые и детерминированные; вызываются заново при каждом изменении content.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// WordsPerMinute — скорость чтения для оценки ReadingTime.
	WordsPerMinute = 200
	// ExcerptMaxLength — анонс длиннее этого значения обрезается.
	ExcerptMaxLength = 150
	// excerptCut — сколько символов остаётся перед многоточием.
	excerptCut = 147
	ellipsis   = "..."
)

// Порядок важен: жирный (**) снимается раньше курсива (*).
var (
	headingRe    = regexp.MustCompile(`#{1,6}\s`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodeRe = regexp.MustCompile("`(.*?)`")
	linkRe       = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	newlineRe    = regexp.MustCompile(`\r?\n`)
)

// PlainText снимает разметку markdown (заголовки, жирный, курсив, inline-код,
// ссылки — остаётся текст ссылки) и HTML-теги, переводы строк заменяет пробелами.
func PlainText(content string) string {
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	s := headingRe.ReplaceAllString(content, "")
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = newlineRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}

// Excerpt строит анонс: текст до ExcerptMaxLength символов возвращается как есть,
// длиннее — обрезается до 147 символов по границе руны, хвостовые пробелы снимаются
// и добавляется "...".
func Excerpt(content string) string {
	plain := PlainText(content)
	if utf8.RuneCountInString(plain) <= ExcerptMaxLength {
		return plain
	}

	runes := []rune(plain)

	return strings.TrimSpace(string(runes[:excerptCut])) + ellipsis
}

// ReadingTime — минуты чтения: слова (по пробельным символам) / WordsPerMinute,
// округление вверх, минимум 1.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute

	if minutes < 1 {
		return 1
	}

	return minutes
}
