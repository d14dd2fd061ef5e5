// Package handlers exposes the HTTP API: authentication, case and session
// CRUD, memory block operations, rule search, document upload, and workflow
// control.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError writes the API's error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondData writes the API's success envelope
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// intQuery returns the named query parameter as an int, or fallback when
// absent or unparseable.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
