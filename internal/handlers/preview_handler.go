package handlers

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"internmatch/profile-builder/internal/services"
)

const (
	previewKeepAlive = 15 * time.Second
	previewBuffer    = 16
)

// PreviewHandler streams a session's preview messages as server-sent events.
type PreviewHandler struct {
	sessions *services.SessionManager
	bus      services.PreviewBus
	logger   *slog.Logger
}

func NewPreviewHandler(sessions *services.SessionManager, bus services.PreviewBus, logger *slog.Logger) *PreviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewHandler{sessions: sessions, bus: bus, logger: logger}
}

// HandleStream handles GET /sessions/:id/preview
func (h *PreviewHandler) HandleStream(c *fiber.Ctx) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return err
	}
	w, err := h.sessions.Get(id, ownerID(c))
	if err != nil {
		return err
	}

	channel := services.PreviewChannel(id.String())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(out *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Subscribe before the snapshot so a push landing in between is
		// delivered instead of lost.
		messages := make(chan []byte, previewBuffer)
		subscribed, err := h.bus.Subscribe(ctx, channel, func(payload []byte) {
			pushLatest(messages, payload)
		})
		if err != nil {
			h.logger.Warn("preview subscription failed", slog.String("channel", channel), slog.Any("error", err))
			return
		}
		defer func() {
			cancel()
			<-subscribed
		}()

		// seq 0 is the snapshot; pushes from the synchronizer start at 1
		initial, err := json.Marshal(services.BuildPreviewMessage(w.State().Profile, 0))
		if err != nil {
			h.logger.Error("failed to encode preview", slog.Any("error", err))
			return
		}
		if writeEvent(out, initial) != nil {
			return
		}

		ticker := time.NewTicker(previewKeepAlive)
		defer ticker.Stop()
		for {
			select {
			case payload := <-messages:
				if writeEvent(out, payload) != nil {
					return
				}
			case <-w.Done():
				// flush what the synchronizer sent before the session ended
				for {
					select {
					case payload := <-messages:
						if writeEvent(out, payload) != nil {
							return
						}
					default:
						return
					}
				}
			case <-ticker.C:
				if _, err := out.WriteString(": ping\n\n"); err != nil {
					return
				}
				if out.Flush() != nil {
					return
				}
			}
		}
	})
	return nil
}

// pushLatest enqueues payload, dropping the oldest queued message when the
// client is behind. The newest document is never the one dropped.
func pushLatest(queue chan []byte, payload []byte) {
	for {
		select {
		case queue <- payload:
			return
		default:
		}
		select {
		case <-queue:
		default:
		}
	}
}

func writeEvent(out *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(out, "event: preview\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return out.Flush()
}
