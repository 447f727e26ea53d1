package handlers

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"internmatch/profile-builder/internal/services"
)

type ProfileHandler struct {
	profiles services.ProfileService
	now      func() time.Time
}

func NewProfileHandler(profiles services.ProfileService, now func() time.Time) *ProfileHandler {
	if now == nil {
		now = time.Now
	}
	return &ProfileHandler{profiles: profiles, now: now}
}

// HandleGet handles GET /profile
func (h *ProfileHandler) HandleGet(c *fiber.Ctx) error {
	p, err := h.profiles.GetProfile(c.UserContext(), ownerID(c))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// HandlePut handles PUT /profile. The body may use any of the accepted
// field spellings; the stored profile is the normalised one.
func (h *ProfileHandler) HandlePut(c *fiber.Ctx) error {
	var raw map[string]any
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}

	p, err := services.NormalizeProfile(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid profile: %v", err))
	}
	if verr := services.ValidateForSubmit(p, h.now()); verr != nil {
		return verr
	}

	if err := h.profiles.SaveProfile(c.UserContext(), ownerID(c), p); err != nil {
		return err
	}
	return c.JSON(p)
}
