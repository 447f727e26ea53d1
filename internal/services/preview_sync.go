package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"internmatch/profile-builder/internal/models"
)

const (
	DefaultPreviewDebounce = 50 * time.Millisecond

	previewPublishTimeout = 2 * time.Second
)

// Font size steps chosen by content volume.
const (
	FontSizeSmall  = "9"
	FontSizeMedium = "10"
	FontSizeLarge  = "11"
)

// FontSizeFor picks a smaller font as the number of dated entries grows.
func FontSizeFor(p models.Profile) string {
	n := len(p.Experience) + len(p.Education) + len(p.Projects) + len(p.Trainings)
	switch {
	case n > 10:
		return FontSizeSmall
	case n > 6:
		return FontSizeMedium
	default:
		return FontSizeLarge
	}
}

// DefaultPreviewSettings is the fixed layout of the live preview. Font size
// is filled in per push.
func DefaultPreviewSettings() models.ResumeSettings {
	return models.ResumeSettings{
		FormToShow: map[string]bool{
			"workExperiences": true,
			"educations":      true,
			"projects":        true,
			"skills":          true,
			"custom":          true,
			"trainings":       true,
			"portfolio":       false,
		},
		FormToHeading: map[string]string{
			"workExperiences": "WORK EXPERIENCE",
			"educations":      "EDUCATION",
			"projects":        "ACADEMICS / PERSONAL PROJECTS",
			"skills":          "SKILLS",
			"custom":          "ACCOMPLISHMENTS",
			"trainings":       "TRAININGS, COURSES & PROJECTS",
			"portfolio":       "PORTFOLIO",
		},
		FormsOrder: []string{"educations", "workExperiences", "trainings", "projects", "skills", "portfolio", "custom"},
		ShowBulletPoints: map[string]bool{
			"workExperiences": true,
			"educations":      true,
			"projects":        true,
			"skills":          true,
			"custom":          true,
			"trainings":       true,
			"portfolio":       true,
		},
	}
}

// DefaultGenerationSettings is what the final document is rendered with.
func DefaultGenerationSettings() models.ResumeSettings {
	return models.ResumeSettings{
		FormToShow: map[string]bool{
			"workExperiences": true,
			"educations":      true,
			"projects":        true,
			"skills":          true,
			"custom":          true,
		},
		FormToHeading: map[string]string{
			"custom": "ACCOMPLISHMENTS",
		},
	}
}

// BuildPreviewMessage maps a profile into the message sent to the preview.
func BuildPreviewMessage(p models.Profile, seq uint64) models.PreviewMessage {
	settings := DefaultPreviewSettings()
	settings.FontSize = FontSizeFor(p)
	return models.PreviewMessage{
		Type:     models.PreviewMessageType,
		Seq:      seq,
		Payload:  MapProfileToDocument(p),
		Settings: settings,
	}
}

// PreviewSynchronizer coalesces profile changes and pushes only the latest
// one after the debounce delay. Pushes are fire-and-forget.
type PreviewSynchronizer struct {
	publisher PreviewPublisher
	channel   string
	delay     time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped on every Schedule; a firing timer with an older gen is stale
	seq     uint64
	stopped bool
}

func NewPreviewSynchronizer(publisher PreviewPublisher, channel string, delay time.Duration, logger *slog.Logger) *PreviewSynchronizer {
	if delay <= 0 {
		delay = DefaultPreviewDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewSynchronizer{
		publisher: publisher,
		channel:   channel,
		delay:     delay,
		logger:    logger,
	}
}

// Schedule replaces any pending push with one for p.
func (s *PreviewSynchronizer) Schedule(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	snapshot := p.Clone()
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, snapshot) })
}

// Stop cancels the pending push. Later calls to Schedule are ignored.
func (s *PreviewSynchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *PreviewSynchronizer) fire(gen uint64, p models.Profile) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.timer = nil
	s.mu.Unlock()

	payload, err := json.Marshal(BuildPreviewMessage(p, seq))
	if err != nil {
		previewPushTotal.WithLabelValues("failed").Inc()
		s.logger.Debug("failed to encode preview message", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), previewPublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		previewPushTotal.WithLabelValues("failed").Inc()
		s.logger.Debug("preview push dropped", slog.String("channel", s.channel), slog.Any("error", err))
		return
	}
	previewPushTotal.WithLabelValues("published").Inc()
}
