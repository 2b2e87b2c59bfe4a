package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/hupe1980/agentrouter/dispatcher"
	"github.com/hupe1980/agentrouter/logging"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "agentrouter"

// Options configures a Server.
type Options struct {
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration

	// EnableCORS allows requests from any origin.
	EnableCORS bool

	// Version is reported by the health endpoint.
	Version string

	// Logger receives request logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server serves a Dispatcher over HTTP.
type Server struct {
	app        *fiber.App
	dispatcher *dispatcher.Dispatcher
	opts       Options
	logger     logging.Logger
}

// New creates a Server for d.
func New(d *dispatcher.Dispatcher, optFns ...func(o *Options)) *Server {
	opts := Options{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		EnableCORS:   true,
		Version:      "dev",
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          errorHandler,
		AppName:               ServiceName,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:        app,
		dispatcher: d,
		opts:       opts,
		logger:     opts.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(requestid.New())
	s.app.Use(requestLogger(s.logger))

	if s.opts.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept,Authorization",
			MaxAge:       86400,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.app.Get("/", s.index)
	s.app.Get("/health", s.health)

	v1 := s.app.Group("/v1")
	v1.Post("/messages/count_tokens", s.countTokens)
	v1.Post("/mcp/route", s.route)
	v1.Post("/mcp/route/batch", s.routeBatch)
	v1.Post("/workflow/execute", s.executeWorkflow)
	v1.Get("/agents", s.listAgents)
	v1.Get("/invocations", s.listInvocations)
	v1.Get("/invocations/:id", s.getInvocation)
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Server listening", "address", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func requestLogger(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		logger.Info("HTTP request",
			"request_id", fmt.Sprint(c.Locals("requestid")),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)

		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}
