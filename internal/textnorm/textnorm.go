// Package textnorm converts rich text between PMS's HTML representation
// and WITS's plain-text representation (C8), grounded on the shape of
// internal/jira/client.go's DescriptionToPlainText/PlainTextToADF pair:
// one pure function per direction, original text returned unchanged on
// any internal failure.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	headScriptStyleRe = regexp.MustCompile(`(?is)<(head|script|style)\b[^>]*>.*?</\s*(head|script|style)\s*>`)
	tagRe             = regexp.MustCompile(`(?is)<[^>]*>`)
	brLiRe            = regexp.MustCompile(`(?i)<(br|li)\b[^>]*/?>`)
	paragraphRe       = regexp.MustCompile(`(?i)<(p|div|tr)\b[^>]*>`)
	paragraphCloseRe  = regexp.MustCompile(`(?i)</\s*(p|div|tr)\s*>`)
	tdRe              = regexp.MustCompile(`(?i)<td\b[^>]*>`)
	entityRe          = regexp.MustCompile(`&[a-zA-Z]{2,6};`)
	blankLinesRe      = regexp.MustCompile(`(\r\n){3,}`)
	tabsRe            = regexp.MustCompile(`\t{5,}`)
)

// namedEntities is the fixed substitution table for the HTML entities
// normalization handles explicitly; everything else matching entityRe
// but absent here is simply dropped.
var namedEntities = map[string]string{
	"&nbsp;":  " ",
	"&bull;":  " * ",
	"&lt;":    "<",
	"&gt;":    ">",
	"&amp;":   "&",
	"&quot;":  "\"",
	"&apos;":  "'",
	"&copy;":  "(c)",
	"&reg;":   "(R)",
	"&trade;": "(TM)",
}

// HTMLToPlainText converts html to plain text following a fixed set of
// normalization rules. On any internal failure the original string is
// returned unchanged.
func HTMLToPlainText(html string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = html
		}
	}()

	if html == "" {
		return ""
	}

	s := headScriptStyleRe.ReplaceAllString(html, "")
	s = brLiRe.ReplaceAllString(s, "\n")
	s = paragraphRe.ReplaceAllString(s, "\n\n")
	s = paragraphCloseRe.ReplaceAllString(s, "\n\n")
	s = tdRe.ReplaceAllString(s, "\t")
	s = tagRe.ReplaceAllString(s, "")
	s = replaceEntities(s)

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	s = blankLinesRe.ReplaceAllString(s, strings.Repeat("\r\n", 2))
	s = tabsRe.ReplaceAllString(s, strings.Repeat("\t", 4))

	return s
}

func replaceEntities(s string) string {
	return entityRe.ReplaceAllStringFunc(s, func(entity string) string {
		if repl, ok := namedEntities[strings.ToLower(entity)]; ok {
			return repl
		}
		return ""
	})
}
