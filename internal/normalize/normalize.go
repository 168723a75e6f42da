// Package normalize repairs and cleans raw text lines emitted by the
// multimon-ng decoder before they enter the message pipeline.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// POCSAG alpha pages cannot carry 8-bit characters, so Swedish pagers
// transmit accented letters as ASCII punctuation. The decoder passes the
// punctuation through verbatim.
var swedishReplacer = strings.NewReplacer(
	"]", "Å",
	"[", "Ä",
	`\`, "Ö",
	"}", "å",
	"{", "ä",
	"|", "ö",
)

// Bracketed control-symbol tokens multimon-ng prints in place of
// non-printable bytes. Each becomes a single space. The "< EOT >" spelling
// is an upstream quirk, not a typo.
var controlTokens = []string{
	"<LF>", "<NUL>", "<GS>", "<CR>",
	"<EM>", "<ETX>", "<ACK>", "<HT>",
	"<BS>", "<SOH>", "<STX>", "< EOT >",
	"<ENQ>", "<BEL>", "<VT>", "<FF>",
	"<SO>", "<SI>", "<DLE>", "<DC1>",
	"<DC2>", "<DC3>", "<DC4>", "<NAK>",
	"<SYN>", "<CAN>", "<SUB>", "<ESC>",
	"<FS>", "<RS>", "<US>", "<DEL>",
}

var tokenReplacer = newTokenReplacer()

func newTokenReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(controlTokens)*2)
	for _, tok := range controlTokens {
		pairs = append(pairs, tok, " ")
	}
	return strings.NewReplacer(pairs...)
}

var (
	controlBytes  = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize runs a raw decoder line through all cleaning steps and reports
// whether anything remains. The second return value is false when the input
// is empty or reduces to nothing after cleaning.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	s = repairEncoding(s)
	s = swedishReplacer.Replace(s)
	s = tokenReplacer.Replace(s)
	s = controlBytes.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", false
	}
	return s, true
}

// repairEncoding recovers UTF-8 text that was mistakenly decoded as
// Latin-1 (mojibake from the decoder's byte-oriented output). The text is
// re-encoded to its original Latin-1 bytes; if those bytes form valid
// UTF-8 they are the intended text. Best-effort: any failure passes the
// input through unchanged.
func repairEncoding(s string) string {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(latin1) {
		return s
	}
	return latin1
}
