package server

import (
	"io"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadResponse is the API response after storing an image.
type UploadResponse struct {
	*service.UploadResult
	Message string `json:"message"`
}

// UploadImage handles POST /api/upload
// @Summary Upload image
// @Description Multipart field "image"; jpg, png, gif or webp up to the configured size
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /upload [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return respondError(c, models.NewValidationError("No file uploaded"))
	}
	src, err := file.Open()
	if err != nil {
		return respondError(c, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	// Read one byte past the limit so the service sees oversize content.
	content, err := io.ReadAll(io.LimitReader(src, s.uploadService.MaxBytes()+1))
	if err != nil {
		return respondError(c, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.uploadService.Upload(c.UserContext(), service.UploadInput{
		UserID:      currentUserID(c),
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		UploadResult: uploaded,
		Message:      "File uploaded successfully",
	})
}
