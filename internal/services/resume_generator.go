package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"

	"internmatch/profile-builder/internal/models"
)

const (
	GeneratorModeRemote   = "remote"
	GeneratorModeChromedp = "chromedp"

	contentTypePDF = "application/pdf"

	defaultGenerateTimeout = 60 * time.Second
	maxGeneratedSize       = 20 << 20
)

//go:embed templates/resume.html.tmpl
var resumeHTMLTemplate string

var resumeTemplate = template.Must(template.New("resume").Funcs(template.FuncMap{
	"join": func(sep string, parts ...string) string { return joinNonEmpty(sep, parts...) },
}).Parse(resumeHTMLTemplate))

var defaultFormsOrder = []string{"profile", "educations", "workExperiences", "projects", "skills", "custom"}

var defaultFormHeadings = map[string]string{
	"profile":         profileHeadline,
	"workExperiences": "WORK EXPERIENCE",
	"educations":      "EDUCATION",
	"projects":        "PROJECTS",
	"skills":          "SKILLS",
	"custom":          "ACCOMPLISHMENTS",
}

type GeneratorOptions struct {
	Mode       string
	RemoteURL  string
	Timeout    time.Duration
	ChromePath string
	Logger     *slog.Logger
}

// NewDocumentGenerator picks the renderer named by opts.Mode.
func NewDocumentGenerator(opts GeneratorOptions) (DocumentGenerator, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGenerateTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch opts.Mode {
	case GeneratorModeRemote, "":
		if opts.RemoteURL == "" {
			return nil, fmt.Errorf("remote generator needs a URL")
		}
		return NewRemoteGenerator(opts.RemoteURL, &http.Client{Timeout: opts.Timeout}, opts.Logger), nil
	case GeneratorModeChromedp:
		return NewChromedpGenerator(opts.ChromePath, opts.Timeout, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown generator mode %q", opts.Mode)
	}
}

// RemoteGenerator posts the document to the external rendering service.
type RemoteGenerator struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewRemoteGenerator(url string, client *http.Client, logger *slog.Logger) *RemoteGenerator {
	if client == nil {
		client = &http.Client{Timeout: defaultGenerateTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteGenerator{url: url, client: client, logger: logger}
}

type generateRequest struct {
	Resume   models.ResumeDocument `json:"resume"`
	Settings models.ResumeSettings `json:"settings"`
}

func (g *RemoteGenerator) Generate(ctx context.Context, doc models.ResumeDocument, settings models.ResumeSettings) (*GeneratedDocument, error) {
	if err := ValidateResumeDocument(doc); err != nil {
		return nil, err
	}
	defer observeGenerate(GeneratorModeRemote, time.Now())

	body, err := json.Marshal(generateRequest{Resume: doc, Settings: settings})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", contentTypePDF)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call resume generator: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxGeneratedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read generated document: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("resume generator rejected request",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(string(content), 200)),
		)
		return nil, fmt.Errorf("resume generator returned status %d", resp.StatusCode)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("resume generator returned an empty document")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypePDF
	}
	return &GeneratedDocument{Content: content, ContentType: contentType}, nil
}

// ChromedpGenerator renders the document as HTML and prints it to PDF with
// a headless Chrome started per call.
type ChromedpGenerator struct {
	chromePath string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewChromedpGenerator(chromePath string, timeout time.Duration, logger *slog.Logger) *ChromedpGenerator {
	if timeout <= 0 {
		timeout = defaultGenerateTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChromedpGenerator{chromePath: chromePath, timeout: timeout, logger: logger}
}

func (g *ChromedpGenerator) Generate(ctx context.Context, doc models.ResumeDocument, settings models.ResumeSettings) (*GeneratedDocument, error) {
	if err := ValidateResumeDocument(doc); err != nil {
		return nil, err
	}
	defer observeGenerate(GeneratorModeChromedp, time.Now())

	html, err := RenderResumeHTML(doc, settings)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "resume-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write resume html: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if g.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(g.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancel := context.WithTimeout(cctx, g.timeout)
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(htmlPath)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 in inches
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print resume pdf: %w", err)
	}

	g.logger.Debug("resume pdf rendered", slog.Int("bytes", len(pdfBuf)))
	return &GeneratedDocument{Content: pdfBuf, ContentType: contentTypePDF}, nil
}

type renderSection struct {
	Form    string
	Heading string
	Doc     *models.ResumeDocument
}

// RenderResumeHTML lays out the document following the settings' order,
// visibility and headings.
func RenderResumeHTML(doc models.ResumeDocument, settings models.ResumeSettings) ([]byte, error) {
	order := settings.FormsOrder
	if len(order) == 0 {
		order = defaultFormsOrder
	}
	if order[0] != "profile" {
		order = append([]string{"profile"}, order...)
	}

	sections := make([]renderSection, 0, len(order))
	for _, form := range order {
		if show, ok := settings.FormToShow[form]; ok && !show {
			continue
		}
		heading := settings.FormToHeading[form]
		if heading == "" {
			heading = defaultFormHeadings[form]
		}
		sections = append(sections, renderSection{Form: form, Heading: heading, Doc: &doc})
	}

	fontSize := settings.FontSize
	if fontSize == "" {
		fontSize = FontSizeMedium
	}

	var buf bytes.Buffer
	err := resumeTemplate.Execute(&buf, struct {
		Doc      models.ResumeDocument
		FontSize string
		Sections []renderSection
	}{Doc: doc, FontSize: fontSize, Sections: sections})
	if err != nil {
		return nil, fmt.Errorf("failed to render resume html: %w", err)
	}
	return buf.Bytes(), nil
}

func observeGenerate(generator string, start time.Time) {
	generateDuration.WithLabelValues(generator).Observe(time.Since(start).Seconds())
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
