package resume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-ingest/pkg/apperrors"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText([]byte) (string, error) {
	return f.text, f.err
}

func TestProcess_RejectsNonPDF(t *testing.T) {
	p := NewProcessor(fakeExtractor{text: "ignored"}, 0)

	_, err := p.Process([]byte("x"), "resume.docx", "application/msword")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProcess_EmptyText(t *testing.T) {
	p := NewProcessor(fakeExtractor{text: "  \n\t "}, 0)

	_, err := p.Process([]byte("%PDF-1.4"), "resume.pdf", "")

	assert.ErrorIs(t, err, apperrors.ErrExtractionEmpty)
}

func TestProcess_ExtractorFailureIsEmpty(t *testing.T) {
	p := NewProcessor(fakeExtractor{err: errors.New("malformed PDF: xref")}, 0)

	_, err := p.Process([]byte("junk"), "resume.pdf", "application/pdf")

	assert.ErrorIs(t, err, apperrors.ErrExtractionEmpty)
}

func TestProcess_OnlySymbolsIsEmpty(t *testing.T) {
	p := NewProcessor(fakeExtractor{text: "★ ✉ ☺"}, 0)

	_, err := p.Process([]byte("%PDF"), "resume.pdf", "")

	assert.ErrorIs(t, err, apperrors.ErrExtractionEmpty)
}

func TestProcess_Success(t *testing.T) {
	data := []byte("%PDF-1.7 fake bytes")
	p := NewProcessor(fakeExtractor{text: "Amy  Example\r\nSkills: Go, SQL\n\n\n\nExperience\n2019 - 2021 Senior Engineer at Acme building pipelines"}, 0)

	doc, err := p.Process(data, "amy.pdf", "")

	require.NoError(t, err)
	assert.Equal(t, "Amy Example\nSkills: Go, SQL\n\nExperience\n2019 - 2021 Senior Engineer at Acme building pipelines", doc.Text)
	assert.Equal(t, CountWords(doc.Text), doc.WordCount)
	assert.Equal(t, Fingerprint(data), doc.Fingerprint)
	assert.Equal(t, []string{"Go", "SQL"}, doc.Sections.Skills)
	assert.Len(t, doc.Sections.Experiences, 1)
}

func TestProcess_AppliesWordCap(t *testing.T) {
	p := NewProcessor(fakeExtractor{text: numberedWords(5000)}, 0)

	doc, err := p.Process([]byte("%PDF"), "big.pdf", "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, DefaultWordCap, doc.WordCount)
	assert.Equal(t, DefaultWordCap, p.WordCap())
}

func TestProcess_CustomWordCap(t *testing.T) {
	p := NewProcessor(fakeExtractor{text: numberedWords(50)}, 10)

	doc, err := p.Process([]byte("%PDF"), "small.pdf", "")

	require.NoError(t, err)
	assert.Equal(t, 10, doc.WordCount)
}

func TestPDFExtractor_MalformedInput(t *testing.T) {
	_, err := NewPDFExtractor().ExtractText([]byte("definitely not a pdf"))

	assert.Error(t, err)
}
