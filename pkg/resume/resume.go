// Package resume extracts and structures text from uploaded résumé PDFs.
package resume

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

// Document is a processed résumé.
type Document struct {
	Text        string // cleaned and capped
	WordCount   int
	Fingerprint string
	Sections    Sections
}

// Processor validates, extracts, cleans, caps and analyzes résumé uploads.
type Processor struct {
	extractor TextExtractor
	wordCap   int
}

// NewProcessor creates a Processor. A non-positive wordCap uses DefaultWordCap.
func NewProcessor(extractor TextExtractor, wordCap int) *Processor {
	if wordCap <= 0 {
		wordCap = DefaultWordCap
	}
	return &Processor{extractor: extractor, wordCap: wordCap}
}

// WordCap returns the configured maximum word count.
func (p *Processor) WordCap() int {
	return p.wordCap
}

// Process turns an upload into a Document. It returns an error wrapping
// apperrors.ErrInvalidInput when the upload is not a PDF and
// apperrors.ErrExtractionEmpty when no text could be extracted.
func (p *Processor) Process(data []byte, filename, contentType string) (*Document, error) {
	if !IsPDF(filename, contentType) {
		return nil, fmt.Errorf("%w: %s is not a PDF", apperrors.ErrInvalidInput, filename)
	}

	raw, err := p.extractor.ExtractText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExtractionEmpty, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", apperrors.ErrExtractionEmpty, filename)
	}

	capped := CapWords(CleanText(raw), p.wordCap)
	if capped == "" {
		return nil, fmt.Errorf("%w: %s contains no readable text", apperrors.ErrExtractionEmpty, filename)
	}

	return &Document{
		Text:        capped,
		WordCount:   CountWords(capped),
		Fingerprint: Fingerprint(data),
		Sections:    Analyze(capped),
	}, nil
}
