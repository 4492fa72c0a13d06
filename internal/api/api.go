package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"glimo/internal/service"
	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 10 << 20

// errorStatus maps service errors to a status and a message safe to show.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrSpinNotAvailable), errors.Is(err, service.ErrInsufficientStars),
		errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidMessage),
		errors.Is(err, service.ErrUnknownBundle), errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// respondError logs err and writes the mapped status. what names the failed
// operation in the log.
func respondError(c *gin.Context, err error, what string) {
	status, message := errorStatus(err)

	log := logger.Logger()
	if status >= http.StatusInternalServerError {
		log.Error("failed to "+what, zap.Error(err), zap.String("path", c.FullPath()))
	} else {
		log.Info("request refused", zap.String("op", what), zap.Error(err))
	}

	c.JSON(status, gin.H{"error": message})
}

// sessionUser returns the authenticated user or aborts with 401.
func sessionUser(c *gin.Context) (*auth.SessionUser, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		logger.Logger().Error("session user not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

func int64Query(c *gin.Context, name string) int64 {
	v, _ := strconv.ParseInt(c.Query(name), 10, 64)
	return v
}

// formUpload reads the multipart file field "file".
func formUpload(c *gin.Context) (*service.Upload, bool) {
	log := logger.Logger()

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return nil, false
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		log.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return nil, false
	}
	defer f.Close()

	data := make([]byte, header.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		log.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return nil, false
	}

	return &service.Upload{
		Filename: header.Filename,
		Mime:     header.Header.Get("Content-Type"),
		Data:     data,
	}, true
}
