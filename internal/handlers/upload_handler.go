package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/creative-evaluator/internal/models"
	"alfredoptarigan/creative-evaluator/internal/repositories"
	"alfredoptarigan/creative-evaluator/internal/services"
)

const extractedPreviewChars = 2000

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	parser         services.DocumentParser
	extractor      services.BriefExtractor
	model          ModelBackend
	maxFileSize    int64
	logger         *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	parser services.DocumentParser,
	extractor services.BriefExtractor,
	model ModelBackend,
	maxFileSize int64,
	logger *zap.Logger,
) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		parser:         parser,
		extractor:      extractor,
		model:          model,
		maxFileSize:    maxFileSize,
		logger:         logger.Named("upload"),
	}
}

// HandleUpload handles POST /creative/upload. The multipart field is "file".
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded. Use the 'file' form field.")
	}
	if fileHeader.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File too large",
			"limit": h.maxFileSize,
		})
	}
	if !services.AllowedUpload(fileHeader.Filename) {
		return errorJSON(c, fiber.StatusBadRequest, "Unsupported file type. Upload a PDF, DOCX or text file.")
	}

	stored, err := h.storageService.SaveFile(fileHeader)
	if err != nil {
		h.logger.Error("❌ Failed to save upload", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save file")
	}

	text, err := h.parser.ExtractText(stored.OriginalName, stored.Content)
	if err != nil {
		// Images and other binaries are still usable as a file reference.
		h.logger.Warn("⚠️ No text extracted from upload",
			zap.String("filename", stored.OriginalName),
			zap.Error(err),
		)
		text = ""
	}

	now := time.Now()
	doc := models.Document{
		ID:               uuid.New(),
		Filename:         stored.Filename,
		OriginalFileName: stored.OriginalName,
		ContentType:      stored.ContentType,
		FilePath:         stored.Path,
		Size:             stored.Size,
		ExtractedText:    text,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.docRepo.Create(&doc); err != nil {
		if delErr := h.storageService.DeleteFile(stored.Filename); delErr != nil {
			h.logger.Warn("⚠️ Failed to clean up upload", zap.Error(delErr))
		}
		h.logger.Error("❌ Failed to save document record", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to save document record")
	}

	h.logger.Info("📄 Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", doc.OriginalFileName),
		zap.Int("text_chars", len(text)),
	)

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:            doc.ID.String(),
		Filename:      doc.Filename,
		OriginalName:  doc.OriginalFileName,
		ContentType:   doc.ContentType,
		ExtractedText: preview(text, extractedPreviewChars),
	})
}

// HandleExtract handles POST /creative/extract: it drafts a brief from an
// uploaded document's text.
func (h *UploadHandler) HandleExtract(c *fiber.Ctx) error {
	var req models.ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request payload")
	}
	docID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid document_id format")
	}

	doc, err := h.docRepo.FindByID(docID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	draft, err := h.extractor.ExtractBrief(c.UserContext(), doc.ExtractedText, h.model.Query)
	if err != nil {
		switch {
		case services.IsRateLimitError(err):
			return errorJSON(c, fiber.StatusTooManyRequests, "Model rate limit reached. Please retry later.")
		case errors.Is(err, services.ErrExtractionFailed):
			return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return err
	}

	draft.Creative.DocumentID = doc.ID.String()
	return c.JSON(fiber.Map{
		"input":      draft,
		"validation": services.ValidateInput(*draft),
	})
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
