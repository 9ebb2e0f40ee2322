// Package slug derives URL-safe company slugs and probes for a free one.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const DefaultMaxAttempts = 1000

var ErrSlugExhausted = errors.New("no free slug within the attempt limit")

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\s_-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
	valid      = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Make lower-cases name, folds diacritics, drops anything outside
// [a-z0-9], whitespace, '-' and '_', then joins the words with single hyphens.
// "Café Zürich & Co." becomes "cafe-zurich-co".
func Make(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	s := strings.ToLower(strings.TrimSpace(folded))
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}

// ExistsFunc reports whether a slug is already taken.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// GenerateUnique returns base when it is free, otherwise the first free of
// base-2, base-3, ... Each candidate is checked once. Giving up after
// maxAttempts candidates returns ErrSlugExhausted.
func GenerateUnique(ctx context.Context, base string, exists ExistsFunc, maxAttempts int) (string, error) {
	if base == "" {
		return "", errors.New("slug: empty base")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	candidate := base
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(attempt+1)
	}
	return "", fmt.Errorf("%w: %q after %d attempts", ErrSlugExhausted, base, maxAttempts)
}
