package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ASGawde/AgriGPT/ai/agent"
	"github.com/ASGawde/AgriGPT/ai/completion"
)

// AskRequest is the text query payload, accepted as JSON or form data.
type AskRequest struct {
	Query string `json:"query" form:"query"`
}

// AskInput echoes back what the caller submitted.
type AskInput struct {
	Query         string `json:"query"`
	ImageUploaded bool   `json:"image_uploaded"`
}

// AskResponse is the uniform reply shape for all ask endpoints.
type AskResponse struct {
	RequestID string   `json:"request_id"`
	Status    string   `json:"status"`
	ElapsedMS int64    `json:"elapsed_ms"`
	Input     AskInput `json:"input"`
	Analysis  string   `json:"analysis"`
}

// askTextHandler handles text-only queries with multi-agent routing.
func (s *Server) askTextHandler(c echo.Context) error {
	start := time.Now()

	req := new(AskRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request").SetInternal(err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide a valid text query.")
	}

	analysis := s.router.RouteQuery(c.Request().Context(), req.Query, "")
	s.metrics.ObserveRequest(string(agent.ModalityText), time.Since(start).Seconds())

	return c.JSON(http.StatusOK, AskResponse{
		RequestID: uuid.NewString(),
		Status:    "success",
		ElapsedMS: time.Since(start).Milliseconds(),
		Input:     AskInput{Query: req.Query},
		Analysis:  analysis,
	})
}

// askImageHandler handles image-only pest and disease diagnosis.
func (s *Server) askImageHandler(c echo.Context) error {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required").SetInternal(err)
	}

	imagePath, cleanup, httpErr := s.saveUpload(fileHeader)
	if httpErr != nil {
		return httpErr
	}
	defer cleanup()

	analysis := s.router.RouteQuery(c.Request().Context(), "", imagePath)
	s.metrics.ObserveRequest(string(agent.ModalityImage), time.Since(start).Seconds())

	return c.JSON(http.StatusOK, AskResponse{
		RequestID: uuid.NewString(),
		Status:    "success",
		ElapsedMS: time.Since(start).Milliseconds(),
		Input:     AskInput{ImageUploaded: true},
		Analysis:  analysis,
	})
}

// askChatHandler accepts a text query plus an optional image and triggers
// multimodal fusion when both are present.
func (s *Server) askChatHandler(c echo.Context) error {
	start := time.Now()

	query := strings.TrimSpace(c.FormValue("query"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide a valid text query.")
	}

	var imagePath string
	modality := agent.ModalityText
	if fileHeader, err := c.FormFile("file"); err == nil {
		var cleanup func()
		var httpErr *echo.HTTPError
		imagePath, cleanup, httpErr = s.saveUpload(fileHeader)
		if httpErr != nil {
			return httpErr
		}
		defer cleanup()
		modality = agent.ModalityMultimodal
	}

	analysis := s.router.RouteQuery(c.Request().Context(), query, imagePath)
	s.metrics.ObserveRequest(string(modality), time.Since(start).Seconds())

	return c.JSON(http.StatusOK, AskResponse{
		RequestID: uuid.NewString(),
		Status:    "success",
		ElapsedMS: time.Since(start).Milliseconds(),
		Input:     AskInput{Query: query, ImageUploaded: imagePath != ""},
		Analysis:  analysis,
	})
}

// saveUpload validates an uploaded image and writes it to a temp file. The
// returned cleanup removes the file and must be called by the handler.
func (s *Server) saveUpload(fileHeader *multipart.FileHeader) (string, func(), *echo.HTTPError) {
	if fileHeader.Size > completion.MaxImageBytes {
		return "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large (maximum 8 MB).")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "unable to read uploaded file").SetInternal(err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, completion.MaxImageBytes+1))
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "unable to read uploaded file").SetInternal(err)
	}
	if len(data) == 0 {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "Uploaded image is empty.")
	}
	if len(data) > completion.MaxImageBytes {
		return "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large (maximum 8 MB).")
	}

	// Trust the bytes, not the declared content type.
	var ext string
	switch http.DetectContentType(data) {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		return "", nil, echo.NewHTTPError(http.StatusUnsupportedMediaType, "Unsupported file format. Only JPEG/PNG allowed.")
	}

	tmp, err := os.CreateTemp("", "agrigpt-upload-*"+ext)
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusInternalServerError, "unable to store uploaded file").SetInternal(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, echo.NewHTTPError(http.StatusInternalServerError, "unable to store uploaded file").SetInternal(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, echo.NewHTTPError(http.StatusInternalServerError, "unable to store uploaded file").SetInternal(err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}
