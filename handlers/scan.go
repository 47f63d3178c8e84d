package handlers

import (
	"net/http"

	"food-rescue-api/classifier"

	"github.com/gin-gonic/gin"
)

// ScanFoodImage accepts a multipart upload under "image" and returns the
// freshness classification. It persists nothing: whether the verdict ends up
// on a delivery's quality flag is the caller's decision.
func ScanFoodImage(cls *classifier.Classifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}
		defer file.Close()

		img, err := classifier.Decode(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}

		c.JSON(http.StatusOK, cls.Classify(img))
	}
}
