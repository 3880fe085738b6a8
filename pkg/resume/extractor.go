package resume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a document into plain text in visual reading order.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// wordGapRatio is the horizontal gap, as a fraction of font size, above
// which two adjacent text runs on one row are treated as separate words.
const wordGapRatio = 0.2

type pdfExtractor struct{}

// NewPDFExtractor returns a TextExtractor for PDF documents. Rows are read
// top to bottom and runs within a row left to right.
func NewPDFExtractor() TextExtractor {
	return pdfExtractor{}
}

var _ TextExtractor = pdfExtractor{}

func (pdfExtractor) ExtractText(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		for j, row := range rows {
			if j > 0 {
				b.WriteByte('\n')
			}
			writeRow(&b, row.Content)
		}
	}
	return b.String(), nil
}

// writeRow joins a row's runs, inserting a space where the gap between runs
// is wider than wordGapRatio of the font size.
func writeRow(b *strings.Builder, runs pdf.TextHorizontal) {
	var prev *pdf.Text
	for k := range runs {
		t := &runs[k]
		if prev != nil && t.S != "" {
			gap := t.X - (prev.X + prev.W)
			size := t.FontSize
			if size <= 0 {
				size = 1
			}
			if gap > size*wordGapRatio && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prev = t
	}
}
