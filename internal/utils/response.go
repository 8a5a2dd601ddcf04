package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Success writes the standard 200 envelope.
func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// Created writes the standard 201 envelope.
func Created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes the standard error envelope with the given status code.
func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   msg,
	})
}
