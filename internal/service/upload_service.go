package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "uploads"
	DefaultMaxUploadSizeMB = 5
	UploadURLPrefix        = "/uploads/"
	WebPQuality            = 75
)

var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type UploadInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// UploadResult describes a stored image.
type UploadResult struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	WebPURL   string `json:"webpUrl,omitempty"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"sizeBytes"`
	MimeType  string `json:"mimeType"`
}

type UploadService struct {
	uploadDir          string
	baseURL            string
	maxUploadSizeBytes int64
	now                func() time.Time
}

func NewUploadService(cfg *config.Config) *UploadService {
	uploadDir := DefaultUploadDir
	maxBytes := int64(DefaultMaxUploadSizeMB) * 1024 * 1024
	baseURL := ""

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.UploadMaxSizeMB > 0 {
			maxBytes = cfg.UploadMaxBytes()
		}
		baseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	}

	return &UploadService{
		uploadDir:          uploadDir,
		baseURL:            baseURL,
		maxUploadSizeBytes: maxBytes,
		now:                time.Now,
	}
}

// Dir is where uploaded files are written and served from.
func (s *UploadService) Dir() string {
	return s.uploadDir
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxUploadSizeBytes
}

// TooLarge is the error for a file above the configured limit.
func (s *UploadService) TooLarge() error {
	return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
}

func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	result, err := s.upload(ctx, in)
	if err != nil {
		label := "error"
		if models.IsCode(err, models.CodeValidation) {
			label = "rejected"
		}
		middleware.Uploads.WithLabelValues(label).Inc()
		return nil, err
	}
	middleware.Uploads.WithLabelValues("stored").Inc()
	return result, nil
}

func (s *UploadService) upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, s.TooLarge()
	}

	declared := normalizeContentType(in.ContentType)
	if !isAllowedImageMIME(declared) {
		return nil, models.NewValidationError("Only image files are allowed (jpg, png, gif, webp)")
	}

	detected := normalizeContentType(http.DetectContentType(in.Content))
	if !isAllowedImageMIME(detected) || !isMatchingContentType(declared, detected) {
		return nil, models.NewValidationError("Only image files are allowed (jpg, png, gif, webp)")
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if ext == "" {
		ext = extensionFor(detected)
	}
	extType, ok := allowedExtensions[ext]
	if !ok {
		return nil, models.NewValidationError("Only image files are allowed (jpg, png, gif, webp)")
	}
	if extType != detected {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if decodedFormatToMime(format) != detected {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
	path := filepath.Join(s.uploadDir, name)
	if err := writeBytesToFile(path, in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}

	result := &UploadResult{
		Filename:  name,
		URL:       s.publicURL(name),
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: int64(len(in.Content)),
		MimeType:  detected,
	}

	if detected == "image/jpeg" || detected == "image/png" {
		webpName := strings.TrimSuffix(name, ext) + ".webp"
		if err := s.writeWebP(in.Content, filepath.Join(s.uploadDir, webpName)); err != nil {
			middleware.Logger.WarnContext(ctx, "WebP variant failed",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
		} else {
			result.WebPURL = s.publicURL(webpName)
		}
	}

	middleware.Logger.InfoContext(ctx, "File uploaded",
		slog.String("file", name),
		slog.Uint64("user_id", uint64(in.UserID)),
		slog.Int64("size", result.SizeBytes),
	)
	return result, nil
}

func (s *UploadService) publicURL(name string) string {
	return s.baseURL + UploadURLPrefix + name
}

func (s *UploadService) writeWebP(content []byte, path string) error {
	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return err
	}
	encoded, err := encodeWebP(img, WebPQuality)
	if err != nil {
		return err
	}
	return writeBytesToFile(path, encoded)
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
