package crm

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// Server wires the fiber backed router with the authentication middleware and
// the API controller.
type Server struct {
	adapter    router.Server[*fiber.App]
	controller *APIController
	logger     Logger
}

type ServerOption func(*Server) *Server

func WithServerLogger(l Logger) ServerOption {
	return func(s *Server) *Server {
		if l != nil {
			s.logger = l
		}
		return s
	}
}

// NewServer builds the HTTP surface. The caller supplies the middleware so it
// can share the Authenticator with the controller.
func NewServer(controller *APIController, authMiddleware router.MiddlewareFunc, opts ...ServerOption) *Server {
	srv := &Server{
		controller: controller,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			srv = opt(srv)
		}
	}

	srv.adapter = router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	r := srv.adapter.Router()

	controller.RegisterPublicRoutes(r)

	api := r.Group("/api")
	api.Use(authMiddleware)
	controller.RegisterRoutes(api)

	return srv
}

// Router exposes the underlying router, used by tests and callers that mount
// extra routes
func (s *Server) Router() router.Router[*fiber.App] {
	return s.adapter.Router()
}

func (s *Server) Serve(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.adapter.Serve(addr)
}
