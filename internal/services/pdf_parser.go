package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var errNoPDFText = errors.New("no text content found in PDF")

type PDFParserService interface {
	ExtractText(filePath string) (*PDFContent, error)
	ExtractTextFromBytes(data []byte) (*PDFContent, error)
}

type PDFContent struct {
	Text      string
	PageCount int
}

type pdfParserService struct {
	maxPages int
}

// NewPDFParserService reads at most maxPages pages; zero means all.
func NewPDFParserService(maxPages int) PDFParserService {
	return &pdfParserService{maxPages: maxPages}
}

func (p *pdfParserService) ExtractText(filePath string) (*PDFContent, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return p.extract(r)
}

func (p *pdfParserService) ExtractTextFromBytes(data []byte) (*PDFContent, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return p.extract(r)
}

func (p *pdfParserService) extract(r *pdf.Reader) (*PDFContent, error) {
	var textBuilder strings.Builder
	totalPage := r.NumPage()
	if p.maxPages > 0 && totalPage > p.maxPages {
		totalPage = p.maxPages
	}

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		// Unreadable pages are skipped; the rest of the resume is still useful.
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return nil, errNoPDFText
	}

	return &PDFContent{Text: text, PageCount: r.NumPage()}, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
