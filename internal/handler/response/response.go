package response

import (
	"net/http"

	"wallet-signer/pkg/errno"
	"wallet-signer/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一返回结构，code 为业务码，0 表示成功
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    any    `json:"data"`
}

func Success(c *gin.Context, data any) {
	write(c, http.StatusOK, errno.OK.Code, errno.OK.Message, data)
}

// Error 按错误类别决定 HTTP 状态码，未归类的错误额外写一条日志
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	status := statusFor(errno.KindOf(err))
	if status == http.StatusInternalServerError {
		logger.Error("请求处理失败", zap.String("path", c.FullPath()), zap.Error(err))
	}
	write(c, status, code, msg, nil)
}

func write(c *gin.Context, status, code int, msg string, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Response{Code: code, Message: msg, Data: data})
}

func statusFor(kind errno.Kind) int {
	switch kind {
	case errno.KindInvalidInput:
		return http.StatusBadRequest
	case errno.KindAuthorization:
		return http.StatusForbidden
	case errno.KindStorage, errno.KindCrypto:
		return http.StatusUnprocessableEntity
	case errno.KindNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
