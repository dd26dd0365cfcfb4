package textproc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	imageCaptionRe  = regexp.MustCompile(`\(([^)]*(?:Image|Photo|Screenshot)[^)]*)\)`)
	urlRe           = regexp.MustCompile(`http[s]?://(?:[a-zA-Z0-9$\-_@.&+!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	emailRe         = regexp.MustCompile(`\S+@\S+`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
	// Word characters here means unicode letters/digits/underscore, not
	// just the ASCII \w class.
	specialCharsRe  = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s.,!?-]`)
	forMoreInfoRe   = regexp.MustCompile(`(?i)For more information.*$`)
	aboutTrailerRe  = regexp.MustCompile(`(?i)About .*\n.*$`)
)

// StripMarkup removes HTML tags from text, joining text nodes with spaces.
// Plain text without markup passes through unchanged apart from spacing.
func StripMarkup(text string) string {
	tok := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(tok.Text())
		}
	}
	return b.String()
}

// Normalize applies NFKD unicode normalization, collapses whitespace runs
// into single spaces, and drops characters outside the allowed set
// (word characters, whitespace, and . , ! ? - punctuation).
func Normalize(text string) string {
	text = norm.NFKD.String(text)
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = specialCharsRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// RemoveBoilerplate strips image captions, URLs, email addresses and
// trailing press release boilerplate ("For more information...", "About ...").
func RemoveBoilerplate(text string) string {
	text = imageCaptionRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = forMoreInfoRe.ReplaceAllString(text, "")
	text = aboutTrailerRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Clean runs the full cleaning sequence: markup strip, normalization,
// boilerplate removal.
func Clean(text string) string {
	text = StripMarkup(text)
	text = Normalize(text)
	text = RemoveBoilerplate(text)
	return strings.TrimSpace(text)
}
