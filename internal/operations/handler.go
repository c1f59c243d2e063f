package operations

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/tech-arch1tect/pawash/internal/archive"
	"github.com/tech-arch1tect/pawash/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) StartCompress(c echo.Context) error {
	var req archive.Request
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "INVALID_REQUEST", "Invalid request format")
	}

	if req.ArchiveName == "" || req.DestinationDir == "" || req.SourceDir == "" {
		return common.SendBadRequest(c, "MISSING_FIELDS", "archive_name, destination_dir and source_dir are required")
	}

	operationID, err := h.service.StartCompress(req)
	if err != nil {
		return h.startError(c, err)
	}

	return common.SendAccepted(c, OperationResponse{OperationID: operationID})
}

func (h *Handler) StartDownload(c echo.Context) error {
	var req DownloadRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "INVALID_REQUEST", "Invalid request format")
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return common.SendBadRequest(c, "INVALID_URL", "url must be an absolute http or https URL")
	}

	operationID, err := h.service.StartDownload(req)
	if err != nil {
		return h.startError(c, err)
	}

	return common.SendAccepted(c, OperationResponse{OperationID: operationID})
}

func (h *Handler) startError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrTargetBusy):
		return common.SendConflict(c, err.Error())
	case archive.KindOf(err) != 0:
		return common.SendBadRequest(c, "INVALID_ARCHIVE_REQUEST", err.Error())
	default:
		return common.SendInternalError(c, err.Error())
	}
}

func (h *Handler) StreamOperation(c echo.Context) error {
	operationID := c.Param("operationId")
	if err := validateOperationID(operationID); err != nil {
		return common.SendBadRequest(c, "INVALID_OPERATION_ID", "Invalid operation ID format")
	}

	if _, exists := h.service.GetOperation(operationID); !exists {
		return common.SendNotFound(c, "Operation not found")
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Del("Content-Length")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	err := h.service.StreamOperation(c.Request().Context(), operationID, c.Response())
	if errors.Is(err, c.Request().Context().Err()) {
		return nil
	}
	return err
}

func (h *Handler) GetOperationStatus(c echo.Context) error {
	operationID := c.Param("operationId")
	if err := validateOperationID(operationID); err != nil {
		return common.SendBadRequest(c, "INVALID_OPERATION_ID", "Invalid operation ID format")
	}

	operation, exists := h.service.GetOperation(operationID)
	if !exists {
		return common.SendNotFound(c, "Operation not found")
	}

	return common.SendSuccess(c, operation)
}

var errInvalidOperationID = errors.New("invalid operation id")

func validateOperationID(operationID string) error {
	id, err := uuid.Parse(operationID)
	if err != nil || id.Version() != 4 {
		return errInvalidOperationID
	}
	return nil
}
