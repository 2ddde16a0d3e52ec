package serviceutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ResponseSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func ResponseError(c echo.Context, code int, msg string, err error) error {
	resp := GenericResponse{
		Success: false,
		Message: msg,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(code, resp)
}

// ResponseAttachment sends body as a downloadable file.
func ResponseAttachment(c echo.Context, contentType, fileName string, body []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+fileName+"\"")
	return c.Blob(http.StatusOK, contentType, body)
}
