package common

import "github.com/gin-gonic/gin"

// Error writes the JSON error body used across the API: a short
// human-readable message, the HTTP status carrying all the semantics.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
