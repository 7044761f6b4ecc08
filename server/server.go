// Package server 暴露推荐与交互日志的 HTTP 接口。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recflow/recflow/core"
	"github.com/recflow/recflow/pkg/metric"
	"github.com/recflow/recflow/recommend"
	"github.com/recflow/recflow/rules"
)

// Server 聚合编排器与挖掘器，持有 HTTP 生命周期。
type Server struct {
	orchestrator *recommend.Orchestrator
	miner        *rules.Miner
	engine       *rules.Engine
	httpServer   *http.Server
}

func New(addr string, orchestrator *recommend.Orchestrator, miner *rules.Miner, engine *rules.Engine) *Server {
	s := &Server{
		orchestrator: orchestrator,
		miner:        miner,
		engine:       engine,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/health/self", s.health)

	rec := r.Group("/recommendations")
	{
		rec.GET("/home", s.home)
		rec.GET("/product/:product_id", s.similar)
		rec.GET("/search", s.search)
	}

	r.POST("/interactions", s.logInteraction)
	r.GET("/interactions/:user_id", s.history)

	r.POST("/mining/run", s.runMining)

	return r
}

// Start 阻塞运行 HTTP 服务直至关闭。
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭，等待在途请求完成。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metric.Timing("http.request.duration", time.Since(start),
			[]string{"path:" + c.FullPath(), metric.TagAsString("status", http.StatusText(c.Writer.Status()))})
		log.Debug().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// abortWithError 把领域错误翻译为 HTTP 状态码。
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := core.ErrorCodeInternalError

	var domainErr *core.DomainError
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		switch domainErr.Code {
		case core.ErrorCodeInvalidIdentifier, core.ErrorCodeValidation, core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case core.ErrorCodeNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeBusy:
			status = http.StatusConflict
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		case core.ErrorCodeMiningAborted:
			status = http.StatusUnprocessableEntity
		}
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": err.Error()})
}
