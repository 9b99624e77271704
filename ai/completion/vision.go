package completion

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sashabaranov/go-openai"
)

const (
	// MaxImageBytes is the upload ceiling enforced here independently of the
	// HTTP boundary.
	MaxImageBytes = 8 * 1024 * 1024

	// maxImageDimension bounds the longest side before base64 encoding.
	// Larger photos are downscaled to keep the multimodal payload small.
	maxImageDimension = 2048
)

// VisionConfig configures the vision completion service.
type VisionConfig struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	MaxRetries     int
	RetryBaseDelay time.Duration
	SystemMsg      string
}

// VisionService sends an inline-encoded image plus prompt to the upstream
// vision model. Same always-returns-a-string contract as TextService.
type VisionService struct {
	manager ClientManager
	cfg     VisionConfig
}

// NewVisionService creates a vision completion service backed by the shared
// client manager.
func NewVisionService(manager ClientManager, cfg VisionConfig) *VisionService {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 700
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.6
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.SystemMsg == "" {
		cfg.SystemMsg = "You are AgriGPT Vision, an expert crop image analyst."
	}
	return &VisionService{manager: manager, cfg: cfg}
}

// CompleteWithImage validates the image on disk, encodes it as a base64 data
// URL, and sends it with the prompt to the vision model. Validation failures
// return an error string without any network call and without retry.
func (s *VisionService) CompleteWithImage(ctx context.Context, imagePath, prompt string) string {
	payload, mimeType, errMsg := loadImage(imagePath)
	if errMsg != "" {
		return errMsg
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(payload))

	req := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.cfg.SystemMsg},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}

	content, err := completeWithRetry(ctx, s.manager, req, s.cfg.MaxRetries, s.cfg.RetryBaseDelay)
	if err != nil {
		return fmt.Sprintf("Vision model error: %v", err)
	}
	return content
}

// loadImage reads and validates the image bytes. It returns the payload and
// detected MIME type, or a farmer-facing error string.
func loadImage(imagePath string) (payload []byte, mimeType string, errMsg string) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, "", "Error: image file not found."
	}
	if info.Size() == 0 {
		return nil, "", "Error: uploaded image is empty."
	}
	if info.Size() > MaxImageBytes {
		return nil, "", fmt.Sprintf("Error: image exceeds the %d MB limit.", MaxImageBytes/(1024*1024))
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, "", "Error: could not read the uploaded image."
	}

	// Sniff the actual bytes: a declared content type is not trusted.
	mimeType = http.DetectContentType(data)
	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return nil, "", "Error: unsupported image format. Please upload a JPEG or PNG photo."
	}

	return downscaleIfLarge(data, mimeType), mimeType, ""
}

// downscaleIfLarge bounds the pixel dimensions of oversized photos before
// encoding. A decode failure falls back to the raw bytes since the format
// sniff already passed.
func downscaleIfLarge(data []byte, mimeType string) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Warn("vision: image decode failed, sending original bytes", "error", err)
		return data
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxImageDimension && bounds.Dy() <= maxImageDimension {
		return data
	}

	resized := imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)

	format := imaging.JPEG
	if mimeType == "image/png" {
		format = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(90)); err != nil {
		slog.Warn("vision: image re-encode failed, sending original bytes", "error", err)
		return data
	}

	slog.Debug("vision: image downscaled",
		"original_bytes", len(data),
		"resized_bytes", buf.Len())
	return buf.Bytes()
}
