package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recflow/recflow/core"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"rule_count":    s.engine.Size(),
		"rule_revision": s.engine.Revision(),
	})
}

func (s *Server) home(c *gin.Context) {
	userID := c.Query("user_id")
	limit := queryInt(c, "limit", 0)
	resp, err := s.orchestrator.Home(c.Request.Context(), userID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) similar(c *gin.Context) {
	productID := c.Param("product_id")
	limit := queryInt(c, "limit", 0)
	resp, err := s.orchestrator.Similar(c.Request.Context(), productID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) search(c *gin.Context) {
	query := c.Query("query")
	limit := queryInt(c, "limit", 0)
	resp, err := s.orchestrator.Search(c.Request.Context(), query, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// interactionRequest 是交互上报的请求体。
type interactionRequest struct {
	UserID    string `json:"user_id"`
	EventType string `json:"event_type"`
	ProductID string `json:"product_id"`
	Query     string `json:"query"`
}

func (s *Server) logInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, core.NewDomainError(core.ModuleEventLog, core.ErrorCodeInvalidInput,
			"eventlog: malformed request body: "+err.Error()))
		return
	}
	event := &core.InteractionEvent{
		EventType: core.EventType(req.EventType),
		ProductID: req.ProductID,
		Query:     req.Query,
	}
	if err := s.orchestrator.LogInteraction(c.Request.Context(), req.UserID, event); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) history(c *gin.Context) {
	userID := c.Param("user_id")
	days := queryInt(c, "days", 0)
	events, err := s.orchestrator.History(c.Request.Context(), userID, days)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "events": events})
}

// runMining 同步触发一轮规则挖掘。
// 已有挖掘在途返回 409，窗口内无可用事务返回 422（旧表保持有效）。
func (s *Server) runMining(c *gin.Context) {
	if err := s.miner.Run(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "published",
		"rule_count":    s.engine.Size(),
		"rule_revision": s.engine.Revision(),
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
