package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"linkedin-analytics/internal/auth"
	"linkedin-analytics/internal/logx"
)

const claimsKey = "claims"

// requireAuth 校验 Authorization 头中的令牌（支持 "Bearer <token>" 与裸令牌）。
func (srv *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if srv.auth == nil {
			c.Next()
			return
		}
		token := bearer(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}
		claims, err := srv.auth.Verify(token)
		if err != nil {
			logx.Debugf("拒绝请求 %s：%v", c.Request.URL.Path, err)
			unauthorized(c)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearer(h string) string {
	h = strings.TrimSpace(h)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}

// requestLog 以 logx 记录每个请求。
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logx.Component("http").Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Microsecond),
		)
	}
}

// recovery 捕获 panic 并返回 500。
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logx.Errorf("panic recovered: %v | %s %s", err, c.Request.Method, c.Request.URL.Path)
				fail(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}
