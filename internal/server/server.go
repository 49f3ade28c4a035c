package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dshills/coreview/internal/hub"
	"github.com/dshills/coreview/internal/metrics"
	"github.com/dshills/coreview/internal/review"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Feedback strings for requests rejected before reaching the engine.
const (
	RateLimitedFeedback    = "Too many review requests. Try again shortly."
	InvalidRequestFeedback = "Invalid review request."
)

const shutdownTimeout = 10 * time.Second

// Reviewer runs a review.
type Reviewer interface {
	Run(ctx context.Context, req review.Request) (review.Response, error)
}

// Options configures a Server.
type Options struct {
	Addr           string
	AllowedOrigins []string
	// ReviewRatePerMinute caps POST /review across all clients. Zero
	// disables the limit.
	ReviewRatePerMinute int
	ReviewBurst         int
	Hub                 hub.Options
	Provider            string
	Logger              *zap.Logger
	Metrics             *metrics.Metrics
}

// Server is the coreview HTTP server.
type Server struct {
	opts     Options
	reviewer Reviewer
	hub      *hub.Hub
	limiter  *rate.Limiter
	logger   *zap.Logger
	metrics  *metrics.Metrics
	router   *gin.Engine
}

// New builds a Server and its routes.
func New(reviewer Reviewer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	hubOpts := opts.Hub
	hubOpts.Logger = logger.Named("hub")
	hubOpts.Metrics = opts.Metrics
	if hubOpts.CheckOrigin == nil {
		hubOpts.CheckOrigin = originChecker(opts.AllowedOrigins)
	}

	s := &Server{
		opts:     opts,
		reviewer: reviewer,
		hub:      hub.New(hubOpts),
		logger:   logger,
		metrics:  opts.Metrics,
	}
	if opts.ReviewRatePerMinute > 0 {
		burst := opts.ReviewBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.ReviewRatePerMinute)/60), burst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.logger), requestLogger(s.logger), cors(s.opts.AllowedOrigins))

	r.POST("/review", s.handleReview)
	r.GET("/ws/:room", s.handleWS)
	r.GET("/rooms", s.handleRooms)
	r.GET("/rooms/:room", s.handleRoom)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the collaboration hub.
func (s *Server) Hub() *hub.Hub { return s.hub }

func (s *Server) handleReview(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.RateLimited()
		c.JSON(http.StatusTooManyRequests, review.Response{Feedback: RateLimitedFeedback})
		return
	}

	var req review.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, review.Response{Feedback: InvalidRequestFeedback})
		return
	}

	resp, err := s.reviewer.Run(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, review.ErrNoCode):
		c.JSON(http.StatusBadRequest, review.Response{Feedback: review.NoCodeFeedback})
	case errors.Is(err, review.ErrInvalidRequest):
		c.Error(err)
		c.JSON(http.StatusBadRequest, review.Response{Feedback: InvalidRequestFeedback})
	default:
		c.Error(err)
		c.JSON(http.StatusBadGateway, review.Response{Feedback: review.ProviderErrorFeedback})
	}
}

func (s *Server) handleWS(c *gin.Context) {
	if err := s.hub.ServeWS(c.Writer, c.Request, c.Param("room")); err != nil {
		c.Error(err)
	}
}

func (s *Server) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.hub.Rooms()})
}

func (s *Server) handleRoom(c *gin.Context) {
	info, ok := s.hub.Room(c.Param("room"))
	if !ok {
		c.JSON(http.StatusNotFound, info)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"provider": s.opts.Provider,
		"rooms":    len(s.hub.Rooms()),
	})
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked websocket connections are not tracked by Shutdown.
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
