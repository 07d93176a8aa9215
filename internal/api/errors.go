package api

import (
	"errors"
	"log/slog"
	"net/http"

	"taskmanager/internal/apperr"

	"github.com/gin-gonic/gin"
)

// writeError 将组件错误映射为唯一的 HTTP 响应，内部细节只写日志。
func (s *Server) writeError(c *gin.Context, msg string, err error) {
	status, text := statusFor(err)
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error(msg, slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"errorMsg": text})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		return http.StatusBadRequest, "No valid fields to update"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "task not found"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid JWT Token"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusUnauthorized, "User Already Exists"
	default:
		return http.StatusInternalServerError, "Database error"
	}
}

func resultLabel(err error) string {
	if errors.Is(err, apperr.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
