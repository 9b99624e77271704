package completion

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "leaf.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeTestJPEG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	path := filepath.Join(dir, "crop.jpg")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func newVisionService(client *fakeClient) *VisionService {
	return NewVisionService(&fakeManager{client: client}, VisionConfig{Model: "vision-model"})
}

func TestVisionService_SendsDataURL(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := writeTestPNG(t, t.TempDir(), 32, 32)

	out := svc.CompleteWithImage(context.Background(), path, "diagnose this leaf")
	assert.Equal(t, "advice", out)
	require.Equal(t, 1, client.callCount())

	req := client.lastRequest()
	require.Len(t, req.Messages, 2)
	parts := req.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, openai.ChatMessagePartTypeText, parts[0].Type)
	assert.Equal(t, "diagnose this leaf", parts[0].Text)
	require.NotNil(t, parts[1].ImageURL)
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestVisionService_JPEGDetected(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := writeTestJPEG(t, t.TempDir())

	svc.CompleteWithImage(context.Background(), path, "diagnose")
	parts := client.lastRequest().Messages[1].MultiContent
	assert.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestVisionService_MissingFile(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)

	out := svc.CompleteWithImage(context.Background(), "/nonexistent/leaf.png", "diagnose")
	assert.Equal(t, "Error: image file not found.", out)
	assert.Zero(t, client.callCount(), "no network call for a missing file")
}

func TestVisionService_EmptyFile(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	out := svc.CompleteWithImage(context.Background(), path, "diagnose")
	assert.Equal(t, "Error: uploaded image is empty.", out)
	assert.Zero(t, client.callCount())
}

func TestVisionService_OversizedFile(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := filepath.Join(t.TempDir(), "huge.png")
	require.NoError(t, os.WriteFile(path, make([]byte, MaxImageBytes+1), 0o600))

	out := svc.CompleteWithImage(context.Background(), path, "diagnose")
	assert.Contains(t, out, "8 MB limit")
	assert.Zero(t, client.callCount())
}

func TestVisionService_UnsupportedFormatNoRetry(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("this is not an image at all"), 0o600))

	out := svc.CompleteWithImage(context.Background(), path, "diagnose")
	assert.Contains(t, out, "unsupported image format")
	assert.Zero(t, client.callCount(), "format rejection must not reach the network")
}

func TestVisionService_DownscalesLargeImage(t *testing.T) {
	client := &fakeClient{}
	svc := newVisionService(client)
	path := writeTestPNG(t, t.TempDir(), maxImageDimension+512, 64)

	svc.CompleteWithImage(context.Background(), path, "diagnose")
	require.Equal(t, 1, client.callCount())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	url := client.lastRequest().Messages[1].MultiContent[1].ImageURL.URL
	// The encoded payload must be smaller than the original once downscaled.
	assert.Less(t, len(url), len(raw)*4/3+64)
}

func TestVisionService_UpstreamErrorDegradesToString(t *testing.T) {
	client := &fakeClient{outcomes: []fakeOutcome{{err: os.ErrDeadlineExceeded}}}
	svc := NewVisionService(&fakeManager{client: client}, VisionConfig{
		Model:          "vision-model",
		MaxRetries:     2,
		RetryBaseDelay: 1,
	})
	path := writeTestPNG(t, t.TempDir(), 16, 16)

	out := svc.CompleteWithImage(context.Background(), path, "diagnose")
	assert.Contains(t, out, "Vision model error")
}
