package httpapi

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/PlumyCat/trad-bot-src/internal/docformat"
	"github.com/PlumyCat/trad-bot-src/internal/globaltime"
	"github.com/PlumyCat/trad-bot-src/internal/translation"
	"github.com/PlumyCat/trad-bot-src/internal/workflow"
)

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "tradbot",
		"time":    globaltime.UTC(),
		"services": map[string]string{
			"translator": availabilityText(s.opts.Services.Translator),
			"storage":    availabilityText(s.opts.Services.Storage),
			"delivery":   availabilityText(s.opts.Services.Delivery),
		},
	})
}

func availabilityText(configured bool) string {
	if configured {
		return "configured"
	}
	return "not configured"
}

func (s *Server) handleLanguages(c echo.Context) error {
	options := translation.LanguageOptions()
	return success(c, map[string]any{
		"items": options,
		"count": len(options),
	})
}

func (s *Server) handleFormats(c echo.Context) error {
	options := docformat.Options()
	return success(c, map[string]any{
		"items": options,
		"count": len(options),
	})
}

func (s *Server) handleSubmit(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not be read"})
	}

	payload, err := validateSubmitPayload(body)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	rec, err := s.coordinator.Submit(c.Request().Context(), workflow.SubmitRequest{
		FileContent:    payload.FileContent,
		FileName:       payload.FileName,
		TargetLanguage: payload.TargetLanguage,
		OwnerID:        payload.UserID,
	})
	if err != nil {
		return s.respondDomainError(c, err)
	}

	return created(c, rec)
}

type existingRequest struct {
	BlobName       string `json:"blob_name"`
	TargetLanguage string `json:"target_language"`
	UserID         string `json:"user_id"`
}

func (s *Server) handleSubmitExisting(c echo.Context) error {
	var req existingRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	rec, err := s.coordinator.SubmitExisting(c.Request().Context(), req.BlobName, req.TargetLanguage, req.UserID)
	if err != nil {
		return s.respondDomainError(c, err)
	}

	return created(c, rec)
}

func (s *Server) handleActiveCount(c echo.Context) error {
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return failValidation(c, map[string]string{"user_id": "is required"})
	}

	return success(c, map[string]any{
		"user_id":      userID,
		"active_count": s.coordinator.ActiveCount(userID),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	handle := strings.TrimSpace(c.Param("handle"))
	if handle == "" {
		return failValidation(c, map[string]string{"translation_id": "is required"})
	}

	report, err := s.coordinator.Status(c.Request().Context(), handle)
	if err != nil {
		return s.respondDomainError(c, err)
	}

	return success(c, report)
}

func (s *Server) handleCancel(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return failValidation(c, map[string]string{"id": "is required"})
	}

	outcome, err := s.coordinator.Cancel(c.Request().Context(), id)
	if err != nil {
		return s.respondDomainError(c, err)
	}

	return success(c, outcome)
}

type resultRequest struct {
	BlobName       string `json:"blob_name"`
	TargetLanguage string `json:"target_language"`
	UserID         string `json:"user_id"`
}

func (s *Server) handleResult(c echo.Context) error {
	var req resultRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	result, err := s.coordinator.ResolveResult(c.Request().Context(), req.BlobName, req.TargetLanguage, req.UserID)
	if err != nil {
		return s.respondDomainError(c, err)
	}

	return success(c, result)
}
