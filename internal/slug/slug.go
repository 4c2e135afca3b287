// Package slug выводит URL-безопасный идентификатор статьи из заголовка.
//
// Generate — чистая детерминированная функция. Уникальность slug между статьями —
// межсущностный инвариант, поэтому проверяется через внедрённый Checker (см. Resolve):
// при коллизии вызывающий пробует кандидатов с суффиксом.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxLength — максимальная длина slug в символах.
	MaxLength = 50
	// Fallback — slug для заголовков, в которых не осталось ни одного допустимого символа.
	Fallback = "article"
)

// ErrExhausted — все кандидаты заняты.
var ErrExhausted = errors.New("slug: no free candidate")

// Checker сообщает, занят ли slug другой статьёй.
type Checker func(ctx context.Context, slug string) (bool, error)

// Generate нормализует заголовок:
//   - диакритика латиницы сворачивается в ASCII (é -> e);
//   - нижний регистр;
//   - символы вне [a-z0-9-] и пробельных удаляются;
//   - серии пробелов и дефисов схлопываются в один дефис;
//   - результат обрезается до MaxLength без висящего дефиса.
func Generate(title string) string {
	folded, _, err := transform.String(foldTransformer(), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))

	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}

	out := b.String()
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}

	if out == "" {
		return Fallback
	}

	return out
}

// WithSuffix возвращает n-го кандидата: n <= 1 -> base, иначе base-n.
// base укорачивается так, чтобы результат уложился в MaxLength.
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}

	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLength {
		base = strings.TrimRight(base[:MaxLength-len(suffix)], "-")
	}

	return base + suffix
}

// Resolve подбирает свободный slug для заголовка: base, base-2, ... base-maxAttempts.
// Ошибки Checker прокидываются наверх; если свободных нет — ErrExhausted.
func Resolve(ctx context.Context, title string, exists Checker, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	base := Generate(title)
	for n := 1; n <= maxAttempts; n++ {
		candidate := WithSuffix(base, n)

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug: check %q: %w", candidate, err)
		}

		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q after %d attempts", ErrExhausted, base, maxAttempts)
}

func foldTransformer() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
