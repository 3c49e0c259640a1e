package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"collab-service/internal/apperrors"
)

// UploadSigner issues direct-to-bucket upload URLs.
type UploadSigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
}

var imageExtensions = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
	"image/bmp":     "bmp",
	"image/tiff":    "tiff",
	"image/heic":    "heic",
	"image/x-icon":  "ico",
}

// UploadHandler hands out presigned image upload URLs.
type UploadHandler struct {
	signer UploadSigner
}

func NewUploadHandler(signer UploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

// Presign returns {uploadUrl, fileUrl, key} for a single image upload.
func (h *UploadHandler) Presign(c *gin.Context) {
	contentType := strings.ToLower(strings.TrimSpace(c.Query("contentType")))
	ext, ok := imageExtensions[contentType]
	if !ok {
		apperrors.Respond(c, apperrors.Validation([]apperrors.FieldError{{Field: "contentType", Message: "must be a supported image type"}}))
		return
	}

	key := "uploads/" + currentUserID(c) + "/" + uuid.NewString() + "." + ext
	uploadURL, err := h.signer.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not sign upload", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"fileUrl":   h.signer.PublicURL(key),
		"key":       key,
	})
}
