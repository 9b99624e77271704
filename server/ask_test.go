package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASGawde/AgriGPT/internal/profile"
)

type routeCall struct {
	query     string
	imagePath string
}

type stubQueryRouter struct {
	reply string
	calls []routeCall
}

func (s *stubQueryRouter) RouteQuery(_ context.Context, query, imagePath string) string {
	s.calls = append(s.calls, routeCall{query: query, imagePath: imagePath})
	if s.reply != "" {
		return s.reply
	}
	return "advice"
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *stubQueryRouter) {
	t.Helper()
	router := &stubQueryRouter{}
	s, err := NewServer(context.Background(), &profile.Profile{Mode: "dev"}, router, opts...)
	require.NoError(t, err)
	return s, router
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAskText_RoutesQuery(t *testing.T) {
	s, router := newTestServer(t)
	router.reply = "use drip irrigation"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/text",
		strings.NewReader(`{"query": "How often should I water tomatoes?"}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "use drip irrigation", resp.Analysis)
	assert.Equal(t, "How often should I water tomatoes?", resp.Input.Query)
	assert.False(t, resp.Input.ImageUploaded)
	assert.NotEmpty(t, resp.RequestID)

	require.Len(t, router.calls, 1)
	assert.Empty(t, router.calls[0].imagePath)
}

func TestAskText_BlankQueryRejected(t *testing.T) {
	s, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/text",
		strings.NewReader(`{"query": "   "}`))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, router.calls)
}

func TestAskImage_SavesUploadAndRoutes(t *testing.T) {
	s, router := newTestServer(t)

	body, contentType := multipartBody(t, nil, "file", "leaf.png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/image", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Input.ImageUploaded)

	require.Len(t, router.calls, 1)
	assert.Empty(t, router.calls[0].query)
	assert.NotEmpty(t, router.calls[0].imagePath)
	assert.True(t, strings.HasSuffix(router.calls[0].imagePath, ".png"))
}

func TestAskImage_RejectsNonImagePayload(t *testing.T) {
	s, router := newTestServer(t)

	body, contentType := multipartBody(t, nil, "file", "notes.txt", []byte("just some text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/image", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, router.calls)
}

func TestAskImage_RejectsOversizedUpload(t *testing.T) {
	s, router := newTestServer(t)

	// 9 MB payload, over the 8 MB ceiling. Size is checked before sniffing.
	big := make([]byte, 9<<20)
	body, contentType := multipartBody(t, nil, "file", "huge.png", big)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/image", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, router.calls)
}

func TestAskImage_RejectsEmptyUpload(t *testing.T) {
	s, router := newTestServer(t)

	body, contentType := multipartBody(t, nil, "file", "leaf.png", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/image", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, router.calls)
}

func TestAskChat_TextOnlyFallsThrough(t *testing.T) {
	s, router := newTestServer(t)

	body, contentType := multipartBody(t, map[string]string{"query": "low wheat yield"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/chat", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, router.calls, 1)
	assert.Equal(t, "low wheat yield", router.calls[0].query)
	assert.Empty(t, router.calls[0].imagePath)
}

func TestAskChat_MultimodalPassesBoth(t *testing.T) {
	s, router := newTestServer(t)

	body, contentType := multipartBody(t,
		map[string]string{"query": "spots on these leaves"}, "file", "leaf.png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask/chat", body)
	req.Header.Set(echoHeaderContentType, contentType)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, router.calls, 1)
	assert.Equal(t, "spots on these leaves", router.calls[0].query)
	assert.NotEmpty(t, router.calls[0].imagePath)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Input.ImageUploaded)
}

const echoHeaderContentType = "Content-Type"
