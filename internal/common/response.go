package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SendSuccess(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

func SendAccepted(c echo.Context, data any) error {
	return c.JSON(http.StatusAccepted, data)
}

func SendError(c echo.Context, statusCode int, code, message string) error {
	return c.JSON(statusCode, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func SendBadRequest(c echo.Context, code, message string) error {
	return SendError(c, http.StatusBadRequest, code, message)
}

func SendUnauthorized(c echo.Context, message string) error {
	return SendError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func SendNotFound(c echo.Context, message string) error {
	return SendError(c, http.StatusNotFound, "NOT_FOUND", message)
}

func SendConflict(c echo.Context, message string) error {
	return SendError(c, http.StatusConflict, "TARGET_BUSY", message)
}

func SendInternalError(c echo.Context, message string) error {
	return SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
