package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/internal/service/serviceutils"
)

type ExportHandler struct {
	svc *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportDocumentHandler renders the posted record groups as a document download.
func (h *ExportHandler) ExportDocumentHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.ExportRequest
	if err := c.Bind(&req); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
	}

	res, err := h.svc.Export(ctx, &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorLog(ctx, "Export failed: %v", err)
		} else {
			logger.WarnLog(ctx, "Export rejected: %v", err)
		}
		return serviceutils.ResponseError(c, status, "Failed to export document", err)
	}

	logger.InfoLog(ctx, "Exported %s with %d sheets", res.FileName, len(res.Sheets))
	return serviceutils.ResponseAttachment(c, res.ContentType(), res.FileName, res.Body)
}

// ProvidersHandler lists the registered write handler providers.
func (h *ExportHandler) ProvidersHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Providers listed successfully", h.svc.Registry().Names())
}

func statusFor(err error) int {
	switch {
	case service.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrQueriesUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
