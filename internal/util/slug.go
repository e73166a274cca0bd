package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	maxSlugBaseLen = 80
)

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Slugify "Intro to Go, Part 1" -> "intro-to-go-part-1"
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugBaseLen {
		slug = strings.Trim(slug[:maxSlugBaseLen], "-")
	}
	return slug
}

// UniqueSlug 在标题 slug 后追加短随机后缀
func UniqueSlug(title string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := Slugify(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
