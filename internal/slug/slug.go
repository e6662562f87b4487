// Package slug derives URL-friendly identifiers from post titles.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// Fallback is used when a title contains no word characters at all.
const Fallback = "post"

// maxAttempts bounds the suffix search in Unique.
const maxAttempts = 1000

var (
	// nonWord matches anything that isn't a word character or a space.
	nonWord = regexp.MustCompile(`[^\w ]+`)
	// spaces collapses runs of spaces into one hyphen.
	spaces = regexp.MustCompile(` +`)
)

// Make derives a slug from a title.
// Example: "Hello World!!" → "hello-world"
func Make(title string) string {
	result := strings.ToLower(strings.TrimSpace(title))
	result = nonWord.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)
	result = spaces.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Unique returns base when it is free, otherwise the first free base-N for N >= 2.
// taken reports whether a candidate is already in use.
func Unique(base string, taken func(candidate string) (bool, error)) (string, error) {
	if base == "" {
		base = Fallback
	}
	candidate := base
	for n := 2; n <= maxAttempts+1; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxAttempts)
}
