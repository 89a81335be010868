// Package textproc turns raw, possibly HTML-laden email text into the
// canonical forms the rest of the pipeline works on: a plain-text string for
// display and a normalized token sequence for vectorization. The model path
// and the display path share no mutable state.
package textproc

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

const defaultPreviewLength = 500

var (
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	spacePattern   = regexp.MustCompile(`\s+`)
	linkPattern    = regexp.MustCompile(`https?://[^\s<>"']+`)
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}]+`)
	dataURIPattern = regexp.MustCompile(`data:image/[^;]+;base64,[a-zA-Z0-9+/=]+`)
	cidPattern     = regexp.MustCompile(`(?i)cid:[^\s'"<>]+`)
)

// schemeMarkers are dropped from the token stream so URL hosts and paths
// contribute features while the scheme itself does not.
var schemeMarkers = map[string]struct{}{
	"http":  {},
	"https": {},
	"www":   {},
}

// StripHTML converts markup-laden text to plain text: entities are decoded,
// tag runs removed, whitespace collapsed to single spaces, ends trimmed.
// Stripping is best-effort and never fails; an unterminated tag does not look
// like a tag and stays in the output as text. The function is idempotent.
func StripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.UnescapeString(raw)
	text = tagPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TokenizeForModel reduces text to the canonical token sequence the
// vectorizer was fitted on: lowercased, embedded data-URI and cid blobs
// dropped, letter/digit runs split out, stop words and URL scheme markers
// removed, each survivor reduced to its stem. Order is preserved. Empty input
// yields an empty sequence, never an error.
func TokenizeForModel(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ToLower(text)
	text = dataURIPattern.ReplaceAllString(text, " ")
	text = cidPattern.ReplaceAllString(text, " ")

	words := wordPattern.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := schemeMarkers[w]; ok {
			continue
		}
		tokens = append(tokens, english.Stem(w, false))
	}
	return tokens
}

// ExtractLinks finds http/https URLs in the raw, unstripped input. It must
// run over the raw text: stripping can mangle URLs embedded in attributes.
// Duplicates are removed, first-occurrence order is kept.
func ExtractLinks(raw string) []string {
	matches := linkPattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		links = append(links, m)
	}
	return links
}

// Normalizer carries the display-path configuration.
type Normalizer struct {
	previewLength int
}

// NewNormalizer creates a normalizer with the given preview length in bytes.
// Non-positive values fall back to the default.
func NewNormalizer(previewLength int) *Normalizer {
	if previewLength <= 0 {
		previewLength = defaultPreviewLength
	}
	return &Normalizer{previewLength: previewLength}
}

// CleanForDisplay strips markup and truncates to the preview length while
// preserving capitalization and punctuation for human readability.
func (n *Normalizer) CleanForDisplay(raw string) string {
	return TruncateUTF8(StripHTML(raw), n.previewLength)
}

// TruncateUTF8 cuts text to at most max bytes without splitting a rune.
func TruncateUTF8(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// SanitizeUTF8 drops bytes that do not decode as UTF-8. Binary garbage in a
// message body is discardable noise, not a reason to fail the pipeline.
func SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size == 1 {
				continue
			}
		}
		result = append(result, r)
	}
	return string(result)
}
