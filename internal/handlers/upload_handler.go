package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/repositories"
	"internmatch/profile-builder/internal/services"
)

type UploadHandler struct {
	sessions       *services.SessionManager
	uploadRepo     repositories.ResumeUploadRepository
	storageService services.StorageService
	parser         services.ResumeParserService
	maxFileSize    int64
	logger         *slog.Logger
}

func NewUploadHandler(
	sessions *services.SessionManager,
	uploadRepo repositories.ResumeUploadRepository,
	storageService services.StorageService,
	parser services.ResumeParserService,
	maxFileSize int64,
	logger *slog.Logger,
) *UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandler{
		sessions:       sessions,
		uploadRepo:     uploadRepo,
		storageService: storageService,
		parser:         parser,
		maxFileSize:    maxFileSize,
		logger:         logger,
	}
}

// HandleUpload handles POST /sessions/:id/resume?overwrite=
//
// The file is validated and stored, parsed, and only then merged into the
// session. A parse failure leaves the session as it was.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	id, err := sessionIDParam(c)
	if err != nil {
		return err
	}
	owner := ownerID(c)
	w, err := h.sessions.Get(id, owner)
	if err != nil {
		return err
	}
	if w.State().Mode != services.ModeAutofill {
		return services.ErrUploadNotAllowed
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "a PDF must be uploaded in the 'file' field")
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return fmt.Errorf("%w: max size is %d bytes", services.ErrFileTooLarge, h.maxFileSize)
	}

	filename, filePath, err := h.storageService.SaveFile(file, "resume")
	if err != nil {
		return err
	}

	upload := &models.ResumeUpload{
		ID:               uuid.New(),
		OwnerID:          owner,
		SessionID:        id,
		Filename:         filename,
		OriginalFileName: file.Filename,
		FilePath:         filePath,
		Size:             file.Size,
		Status:           models.UploadStatusReceived,
	}
	ctx := c.UserContext()
	if err := h.uploadRepo.Create(ctx, upload); err != nil {
		// Cleanup uploaded file if database insert fails
		_ = h.storageService.DeleteFile(filename)
		return err
	}

	parsed, err := h.parser.Parse(ctx, filePath)
	if err != nil {
		h.markUpload(c, upload.ID, models.UploadStatusFailed, err.Error())
		return err
	}

	overwrite := c.QueryBool("overwrite", false)
	if err := w.ApplyResume(services.MapParsedResumeToProfile(*parsed), overwrite); err != nil {
		h.markUpload(c, upload.ID, models.UploadStatusFailed, err.Error())
		return err
	}
	h.markUpload(c, upload.ID, models.UploadStatusParsed, "")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"upload": models.UploadResponse{
			ID:           upload.ID.String(),
			Filename:     upload.Filename,
			OriginalName: upload.OriginalFileName,
			Status:       string(models.UploadStatusParsed),
		},
		"session": sessionResponse(w.State()),
	})
}

func (h *UploadHandler) markUpload(c *fiber.Ctx, id uuid.UUID, status models.UploadStatus, msg string) {
	if err := h.uploadRepo.UpdateStatus(c.UserContext(), id, status, msg); err != nil {
		h.logger.Warn("failed to update upload status",
			slog.String("upload_id", id.String()),
			slog.Any("error", err),
		)
	}
}
