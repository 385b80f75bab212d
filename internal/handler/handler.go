package handler

import (
	"fmt"

	"wallet-signer/internal/handler/response"
	"wallet-signer/pkg/errno"

	"github.com/gin-gonic/gin"
)

// bindJSON 绑定失败时直接写出 ErrBind 响应
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, fmt.Errorf("%w: %v", errno.ErrBind, err))
		return false
	}
	return true
}

// HealthCheck 存活检查
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": "wallet-signer",
	})
}
