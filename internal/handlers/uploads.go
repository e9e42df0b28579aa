package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/carpool-backend/internal/services"
)

// UploadImage stores the multipart "file" field under the folder in the
// path, e.g. /api/uploads/vehicles, and returns its URL.
func UploadImage(storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		folder := c.Param("folder")
		if !services.ValidFolder(folder) {
			c.JSON(400, gin.H{"error": "invalid folder"})
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(400, gin.H{"error": "file is required"})
			return
		}
		if file.Size > services.MaxUploadBytes {
			c.JSON(413, gin.H{"error": "file too large"})
			return
		}

		url, err := storage.Upload(file, folder)
		if err != nil {
			_ = c.Error(err)
			c.JSON(500, gin.H{"error": "Failed to store file"})
			return
		}
		c.JSON(200, gin.H{"url": url})
	}
}
