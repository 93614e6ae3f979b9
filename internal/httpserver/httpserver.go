// 包 httpserver 以 gin 暴露仪表盘的 JSON API。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"linkedin-analytics/internal/auth"
	"linkedin-analytics/internal/config"
	"linkedin-analytics/internal/dashboard"
	"linkedin-analytics/internal/logx"
)

const shutdownTimeout = 15 * time.Second

// Server 为 HTTP 服务。auth 为 nil 时受保护路由不做校验。
type Server struct {
	cfg    config.Server
	view   config.View
	export string
	svc    *dashboard.Service
	auth   *auth.Manager
	gin    *gin.Engine
}

// New 创建服务并注册路由。
func New(cfg *config.Config, svc *dashboard.Service, am *auth.Manager) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	engine := gin.New()
	engine.Use(recovery(), requestLog())

	srv := &Server{
		cfg:    cfg.Server,
		view:   cfg.View,
		export: cfg.ExportFile,
		svc:    svc,
		auth:   am,
		gin:    engine,
	}
	if am == nil {
		logx.Warnf("未配置登录用户，API 不做身份校验")
	}
	srv.routes()
	return srv
}

// Handler 返回底层 http.Handler，便于测试。
func (srv *Server) Handler() http.Handler { return srv.gin }

func (srv *Server) routes() {
	r := srv.gin
	r.GET("/health", srv.health)

	a := r.Group("/api/auth")
	a.POST("/login", srv.login)
	a.POST("/logout", srv.requireAuth(), srv.logout)
	a.GET("/session", srv.requireAuth(), srv.session)

	api := r.Group("/api", srv.requireAuth())
	api.POST("/data/upload", srv.upload)
	api.POST("/data/import", srv.importURL)
	api.POST("/data/reload", srv.reload)
	api.DELETE("/data", srv.clear)
	api.GET("/stats", srv.stats)
	api.GET("/entries", srv.entries)
	api.GET("/entries/:index", srv.entry)
	api.GET("/export", srv.exportJSON)
}

// Run 启动服务，收到 SIGINT/SIGTERM 或 ctx 结束时优雅关闭。
func (srv *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              srv.cfg.Addr(),
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logx.Infof("HTTP 服务启动：%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen %s: %w", server.Addr, err)
		}
		return nil
	case sig := <-quit:
		logx.Infof("收到信号 %v，正在关闭", sig)
	case <-ctx.Done():
		logx.Infof("上下文结束，正在关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	logx.Infof("HTTP 服务已停止")
	return nil
}
