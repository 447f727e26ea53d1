package handlers

import (
	"github.com/gofiber/fiber/v2"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/services"
)

type ResumeHandler struct {
	profiles  services.ProfileService
	generator services.DocumentGenerator
}

func NewResumeHandler(profiles services.ProfileService, generator services.DocumentGenerator) *ResumeHandler {
	return &ResumeHandler{profiles: profiles, generator: generator}
}

// HandleGenerate handles POST /resume/generate. An optional settings body
// overrides the default layout.
func (h *ResumeHandler) HandleGenerate(c *fiber.Ctx) error {
	settings := services.DefaultGenerationSettings()
	if len(c.Body()) > 0 {
		var custom models.ResumeSettings
		if err := c.BodyParser(&custom); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid settings payload")
		}
		settings = custom
	}

	p, err := h.profiles.GetProfile(c.UserContext(), ownerID(c))
	if err != nil {
		return err
	}

	doc, err := h.generator.Generate(c.UserContext(), services.MapProfileToDocument(p), settings)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="resume.pdf"`)
	return c.Send(doc.Content)
}
