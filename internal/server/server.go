// Package server exposes the ingestion pipeline over HTTP.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/consistency"
	"github.com/agenthands/consistencyguard/internal/framework"
	"github.com/agenthands/consistencyguard/internal/graph"
	"github.com/agenthands/consistencyguard/internal/ingest"
	"github.com/agenthands/consistencyguard/internal/logging"
	"github.com/agenthands/consistencyguard/internal/model"
	"github.com/agenthands/consistencyguard/internal/store"
)

const SessionHeader = "X-Session-ID"

type Server struct {
	Service        *ingest.Service
	Catalog        *framework.Catalog
	AllowedOrigins []string
	logger         *zap.Logger
}

func NewServer(svc *ingest.Service, catalog *framework.Catalog, allowedOrigins []string, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	return &Server{Service: svc, Catalog: catalog, AllowedOrigins: allowedOrigins, logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())

	api := r.Group("/api")
	api.POST("/questions", s.CreateQuestion)
	api.GET("/questions", s.ListQuestions)
	api.DELETE("/questions/:id", s.DeleteQuestion)
	api.GET("/graph", s.Graph)
	api.POST("/check", s.Check)
	api.GET("/frameworks", s.Frameworks)

	return r
}

type CreateQuestionRequest struct {
	Text        string `json:"text" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
	FrameworkID string `json:"framework_id"`
}

func (s *Server) CreateQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// answers are classified against the framework the graph will show them in
	fw := s.Catalog.Get("")
	if req.FrameworkID != "" {
		var ok bool
		fw, ok = s.Catalog.Lookup(req.FrameworkID)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown framework: " + req.FrameworkID})
			return
		}
	}
	categories := fw.PrincipleNames()

	res, err := s.Service.Ingest(c.Request.Context(), ingest.Request{
		Question:   req.Text,
		Answer:     req.Answer,
		SessionID:  sessionID(c),
		Categories: categories,
	})
	if err != nil {
		s.logger.Error("Failed to ingest answer", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process question"})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) ListQuestions(c *gin.Context) {
	answers, err := s.Service.Answers(c.Request.Context(), sessionID(c))
	if err != nil {
		s.logger.Error("Failed to list answers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list questions"})
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (s *Server) DeleteQuestion(c *gin.Context) {
	err := s.Service.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete answer", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) Graph(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessionID(c)

	answers, err := s.Service.Answers(ctx, session)
	if err != nil {
		s.logger.Error("Failed to list answers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build graph"})
		return
	}
	edges, err := s.Service.Edges(ctx, session)
	if err != nil {
		s.logger.Error("Failed to list edges", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build graph"})
		return
	}

	fw := s.Catalog.Get(c.Query("framework_id"))
	c.JSON(http.StatusOK, graph.Build(fw, answers, edges))
}

type CheckRequest struct {
	QuestionText   string `json:"question_text"`
	QuestionAnswer string `json:"question_answer"`
	CompareText    string `json:"compare_text"`
	CompareAnswer  string `json:"compare_answer"`
}

func (s *Server) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	v := s.Service.Check(c.Request.Context(), consistency.Pair{
		Question1: req.QuestionText,
		Answer1:   req.QuestionAnswer,
		Question2: req.CompareText,
		Answer2:   req.CompareAnswer,
	})
	c.JSON(http.StatusOK, v)
}

func (s *Server) Frameworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":    s.Catalog.Default,
		"frameworks": s.Catalog.List(),
		"likert":     framework.LikertScale,
	})
}

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query("session_id")); id != "" {
		return id
	}
	return model.DefaultSession
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// cors answers preflight requests and echoes allowed origins.
func (s *Server) cors() gin.HandlerFunc {
	allowed := make(map[string]bool, len(s.AllowedOrigins))
	for _, o := range s.AllowedOrigins {
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
