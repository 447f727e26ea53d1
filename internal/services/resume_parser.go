package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"internmatch/profile-builder/internal/models"
)

// ResumeParserService turns an uploaded resume PDF into structured data.
type ResumeParserService interface {
	Parse(ctx context.Context, filePath string) (*models.ParsedResume, error)
	ParseBytes(ctx context.Context, data []byte) (*models.ParsedResume, error)
}

type resumeParserService struct {
	pdfParser     PDFParserService
	geminiService GeminiService
	promptBuilder *PromptBuilder
	maxRetries    int
	logger        *slog.Logger
}

func NewResumeParserService(pdfParser PDFParserService, geminiService GeminiService, maxRetries int, logger *slog.Logger) ResumeParserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &resumeParserService{
		pdfParser:     pdfParser,
		geminiService: geminiService,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

func (s *resumeParserService) Parse(ctx context.Context, filePath string) (*models.ParsedResume, error) {
	content, err := s.pdfParser.ExtractText(filePath)
	if err != nil {
		resumeParseTotal.WithLabelValues("unreadable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrResumeParse, err)
	}
	return s.structure(ctx, content)
}

func (s *resumeParserService) ParseBytes(ctx context.Context, data []byte) (*models.ParsedResume, error) {
	content, err := s.pdfParser.ExtractTextFromBytes(data)
	if err != nil {
		resumeParseTotal.WithLabelValues("unreadable").Inc()
		return nil, fmt.Errorf("%w: %v", ErrResumeParse, err)
	}
	return s.structure(ctx, content)
}

func (s *resumeParserService) structure(ctx context.Context, content *PDFContent) (*models.ParsedResume, error) {
	s.logger.Debug("structuring resume text",
		slog.Int("pages", content.PageCount),
		slog.Int("chars", len(content.Text)),
	)

	response, err := s.geminiService.GenerateJSONWithRetry(ctx, s.promptBuilder.BuildResumeParsePrompt(content.Text), 0.1, s.maxRetries)
	if err != nil {
		resumeParseTotal.WithLabelValues("llm_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrResumeParse, err)
	}

	var parsed models.ParsedResume
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		resumeParseTotal.WithLabelValues("invalid_json").Inc()
		return nil, fmt.Errorf("%w: invalid model output: %v", ErrResumeParse, err)
	}
	if parsed.IsEmpty() {
		resumeParseTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w: nothing recognised in the document", ErrResumeParse)
	}

	resumeParseTotal.WithLabelValues("parsed").Inc()
	return &parsed, nil
}
