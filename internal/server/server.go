package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rezonia/cfdi-processor/internal/logger"
	"github.com/rezonia/cfdi-processor/internal/processor"
	"github.com/rezonia/cfdi-processor/internal/validator"
)

const shutdownGrace = 10 * time.Second

// Config holds server configuration
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Debug        bool
	MaxBodyBytes int64
	ParseTimeout time.Duration
	Strict       bool
}

// Server represents the HTTP API server
type Server struct {
	config   *Config
	router   *gin.Engine
	pipeline *processor.Pipeline
	strict   *processor.Pipeline
	log      zerolog.Logger
}

// NewServer creates a new API server
func NewServer(config *Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}
	if config.ParseTimeout <= 0 {
		config.ParseTimeout = 30 * time.Second
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		pipeline: processor.NewPipeline(validatorFor(config.Strict)),
		strict:   processor.NewPipeline(validatorFor(true)),
		log:      logger.WithComponent("server"),
	}

	s.router.Use(gin.Recovery(), requestID(), requestLogger())
	s.setupRoutes()
	return s
}

func validatorFor(strict bool) processor.Option {
	return processor.WithValidator(validator.New(validator.WithStrict(strict)))
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/parse", s.handleParse)
		v1.POST("/summary", s.handleSummary)
		v1.POST("/validate", s.handleValidate)
		v1.POST("/info", s.handleInfo)
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. In-flight requests get shutdownGrace to complete.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.config.Address).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleParse(c *gin.Context) {
	result, ok := s.process(c, s.pipeline)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ParseResponse{
		Document: result.Document,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	result, ok := s.process(c, s.pipeline)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{
		Summary:  result.Summary,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleValidate(c *gin.Context) {
	pipeline := s.pipeline
	if c.Query("strict") == "true" {
		pipeline = s.strict
	}

	result, ok := s.process(c, pipeline)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ValidationResponse{
		Valid:  result.Valid(),
		Issues: result.Issues,
	})
}

func (s *Server) handleInfo(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	info := InfoResponse{
		Format: string(processor.DetectFormat(body)),
		Size:   len(body),
	}
	if info.Format == string(processor.FormatXML) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.ParseTimeout)
		defer cancel()

		result := s.pipeline.ProcessBytes(ctx, body)
		if result.Error != nil {
			info.Error = result.Error.Error()
		} else {
			info.Parsed = true
			info.Stamped = result.Summary.IsStamped()
			info.Concepts = len(result.Document.ConceptList.Concepts)
			info.UUID = result.Summary.UUID
		}
	}

	c.JSON(http.StatusOK, info)
}

// process reads the body and runs it through pipeline. On failure the
// response has already been written.
func (s *Server) process(c *gin.Context, pipeline *processor.Pipeline) (*processor.Result, bool) {
	body, ok := s.readBody(c)
	if !ok {
		return nil, false
	}

	if processor.DetectFormat(body) != processor.FormatXML {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body is not XML"})
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.ParseTimeout)
	defer cancel()

	result := pipeline.ProcessBytes(ctx, body)
	if result.Error != nil {
		log := requestLog(c)
		log.Debug().Err(result.Error).Msg("parse failed")
		c.JSON(http.StatusUnprocessableEntity, newErrorResponse(result.Error))
		return nil, false
	}
	return result, true
}

func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return nil, false
	}

	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return nil, false
	}
	return body, true
}
