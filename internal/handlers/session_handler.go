package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/services"
)

const submitRedirect = "/dashboard"

type SessionHandler struct {
	sessions *services.SessionManager
}

func NewSessionHandler(sessions *services.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// HandleOpen handles POST /sessions
func (h *SessionHandler) HandleOpen(c *fiber.Ctx) error {
	var req models.CreateSessionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	w, err := h.sessions.Open(c.UserContext(), ownerID(c), services.SessionMode(req.Mode))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sessionResponse(w.State()))
}

// HandleGet handles GET /sessions/:id
func (h *SessionHandler) HandleGet(c *fiber.Ctx) error {
	w, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(w.State()))
}

// HandleSetField handles PATCH /sessions/:id/fields
func (h *SessionHandler) HandleSetField(c *fiber.Ctx) error {
	var req models.FieldUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	return h.apply(c, func(w *services.ProfileWizard) error {
		return w.SetField(req.Field, req.Value)
	})
}

// HandleAddLanguage handles POST /sessions/:id/languages
func (h *SessionHandler) HandleAddLanguage(c *fiber.Ctx) error {
	var req models.LanguageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	return h.apply(c, func(w *services.ProfileWizard) error {
		return w.AddLanguage(req.Language)
	})
}

// HandleSetLocation handles PUT /sessions/:id/location
func (h *SessionHandler) HandleSetLocation(c *fiber.Ctx) error {
	var req models.LocationRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	return h.apply(c, func(w *services.ProfileWizard) error {
		return w.SetLocation(models.GeoLocation{
			Address:   req.Address,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})
	})
}

// HandleAddItem handles POST /sessions/:id/items/:collection
func (h *SessionHandler) HandleAddItem(c *fiber.Ctx) error {
	var req models.AddItemRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	w, err := h.session(c)
	if err != nil {
		return err
	}
	id, err := w.AddItem(c.Params("collection"), req.Fields)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item_id": id,
		"session": sessionResponse(w.State()),
	})
}

// HandleUpdateItem handles PATCH /sessions/:id/items/:collection/:itemId
func (h *SessionHandler) HandleUpdateItem(c *fiber.Ctx) error {
	itemID, err := itemIDParam(c)
	if err != nil {
		return err
	}
	var req models.FieldUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	return h.apply(c, func(w *services.ProfileWizard) error {
		return w.UpdateItem(c.Params("collection"), itemID, req.Field, req.Value)
	})
}

// HandleRemoveItem handles DELETE /sessions/:id/items/:collection/:itemId
func (h *SessionHandler) HandleRemoveItem(c *fiber.Ctx) error {
	itemID, err := itemIDParam(c)
	if err != nil {
		return err
	}
	return h.apply(c, func(w *services.ProfileWizard) error {
		return w.RemoveItem(c.Params("collection"), itemID)
	})
}

// HandleNext handles POST /sessions/:id/next
func (h *SessionHandler) HandleNext(c *fiber.Ctx) error {
	return h.apply(c, (*services.ProfileWizard).Next)
}

// HandlePrevious handles POST /sessions/:id/previous
func (h *SessionHandler) HandlePrevious(c *fiber.Ctx) error {
	return h.apply(c, (*services.ProfileWizard).Previous)
}

// HandleSubmit handles POST /sessions/:id/submit
func (h *SessionHandler) HandleSubmit(c *fiber.Ctx) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return err
	}

	outcome, err := h.sessions.Submit(c.UserContext(), id, ownerID(c))
	if err != nil {
		return err
	}

	resp := models.SubmitResponse{
		Saved:             outcome.Saved,
		DocumentGenerated: outcome.DocumentGenerated,
		Warning:           outcome.Warning,
		Profile:           outcome.Profile,
		Redirect:          submitRedirect,
	}
	if outcome.Document != nil {
		resp.Document = outcome.Document.Content
		resp.ContentType = outcome.Document.ContentType
	}
	return c.JSON(resp)
}

// HandleDiscard handles DELETE /sessions/:id
func (h *SessionHandler) HandleDiscard(c *fiber.Ctx) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Discard(id, ownerID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) session(c *fiber.Ctx) (*services.ProfileWizard, error) {
	id, err := sessionIDParam(c)
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(id, ownerID(c))
}

// apply runs fn against the request's session and responds with its state.
func (h *SessionHandler) apply(c *fiber.Ctx, fn func(w *services.ProfileWizard) error) error {
	w, err := h.session(c)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		return err
	}
	return c.JSON(sessionResponse(w.State()))
}

func sessionResponse(s services.WizardState) models.SessionResponse {
	errs := s.Errors
	if errs == nil {
		errs = []models.FieldError{}
	}
	return models.SessionResponse{
		ID:           s.ID.String(),
		Mode:         string(s.Mode),
		Step:         s.Step,
		TotalSteps:   s.TotalSteps,
		StepTitle:    s.StepTitle,
		Profile:      s.Profile,
		Errors:       errs,
		FirstInvalid: s.FirstInvalid,
	}
}

func sessionIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id format")
	}
	return id, nil
}

func itemIDParam(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("itemId"))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}
	return id, nil
}
