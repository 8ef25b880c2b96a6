package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"marketplace-service/internal/uploads"
)

const maxUploadBytes = 10 << 20

// UploadHandler accepts listing images and stores them with the configured
// uploader.
type UploadHandler struct {
	uploader uploads.Uploader
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(uploader uploads.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// UploadImage stores one multipart image and returns its URL and public id.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds size limit"})
		return
	}

	adID := c.PostForm("ad_id")
	if adID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ad_id is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer file.Close()

	img, err := h.uploader.Upload(c.Request.Context(), file, adID)
	if err != nil {
		log.WithError(err).Error("failed to upload image")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to upload image"})
		return
	}

	c.JSON(http.StatusCreated, img)
}

// DeleteImage removes a previously uploaded image by public id.
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	publicID := c.Query("public_id")
	if publicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "public_id is required"})
		return
	}

	if err := h.uploader.Remove(c.Request.Context(), publicID); err != nil {
		log.WithError(err).Error("failed to remove image")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to remove image"})
		return
	}

	c.Status(http.StatusNoContent)
}
