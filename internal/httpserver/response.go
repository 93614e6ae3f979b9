package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp 为统一的 JSON 响应体。
type Resp struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Resp{ErrorCode: 0, Message: "Success", Data: data})
}

// okMsg 返回成功但附带面向用户的提示（如无匹配结果）。
func okMsg(c *gin.Context, msg string, data any) {
	if msg == "" {
		msg = "Success"
	}
	c.JSON(http.StatusOK, Resp{ErrorCode: 0, Message: msg, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Resp{ErrorCode: status, Message: msg})
}

func unauthorized(c *gin.Context) {
	fail(c, http.StatusUnauthorized, "Unauthorized")
}
