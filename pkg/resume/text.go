package resume

import (
	"crypto/sha256"
	"encoding/hex"
	"mime"
	"strings"
	"unicode"
)

const (
	// DefaultWordCap is the default maximum number of words kept from a résumé.
	DefaultWordCap = 3000
	// FingerprintLength is the number of hex characters kept from the SHA-256 digest.
	FingerprintLength = 16
	// PDFContentType is the declared content type accepted as a PDF.
	PDFContentType = "application/pdf"
)

// IsPDF reports whether an upload is treated as a PDF. Either a PDF content
// type or a ".pdf" filename suffix is enough.
func IsPDF(filename, contentType string) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && strings.EqualFold(mediaType, PDFContentType) {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// CleanText normalizes extracted text: CRLF and CR become LF, runs of other
// whitespace become one space, characters that are not letters, numbers or
// punctuation are dropped, spaces around line breaks are trimmed, and three
// or more consecutive line breaks collapse to two.
func CleanText(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false
	newlines := 0
	for _, r := range raw {
		switch {
		case r == '\n':
			pendingSpace = false
			if newlines < 2 {
				b.WriteByte('\n')
			}
			newlines++
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsPunct(r):
			if pendingSpace && newlines == 0 && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			newlines = 0
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CapWords truncates text right after its maxWords-th word. Separators
// before the cut are kept as they were; no word is split.
func CapWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}
	words := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				inWord = false
				if words == maxWords {
					return text[:i]
				}
			}
			continue
		}
		if !inWord {
			inWord = true
			words++
		}
	}
	return text
}

// Fingerprint is the first FingerprintLength hex characters of SHA-256(data).
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
