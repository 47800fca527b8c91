package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/k3sforge/internal/config"
	"github.com/imamik/k3sforge/internal/errdefs"
	"github.com/imamik/k3sforge/internal/plan"
)

// Server wraps the fiber app serving the plan API.
type Server struct {
	app *fiber.App
	log logr.Logger
}

// New builds the app and registers its routes.
func New(log logr.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "k3sforge",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		log: log,
	}

	s.app.Get("/healthz", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(plan.Registry, promhttp.HandlerOpts{})))

	v1 := s.app.Group("/v1")
	v1.Post("/plan", s.composePlan)
	v1.Post("/plan/scripts/:hostname", s.nodeScript)
	v1.Post("/plan/rules", s.rules)
	return s
}

// App returns the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()
	s.log.Info("serving plan API", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down")
		return s.app.Shutdown()
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "k3sforge",
	})
}

// parseSpec decodes the request body. Bodies are YAML (which covers JSON)
// unless the format query selects tfvars.
func parseSpec(c *fiber.Ctx) (*config.Spec, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "request body must hold a feature spec")
	}

	var (
		spec *config.Spec
		err  error
	)
	switch c.Query("format", "yaml") {
	case "yaml", "json":
		spec, err = config.ParseYAML(body)
	case "tfvars":
		spec, err = config.ParseTFVars(body, "request.tfvars")
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown format %q, use yaml, json or tfvars", c.Query("format")))
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return spec, nil
}

func (s *Server) compose(c *fiber.Ctx) (*plan.Plan, error) {
	spec, err := parseSpec(c)
	if err != nil {
		return nil, err
	}
	opts := plan.OfflineOptions(s.log)
	opts.RecordMetrics = true
	return plan.Compose(c.UserContext(), spec, opts)
}

func (s *Server) composePlan(c *fiber.Ctx) error {
	p, err := s.compose(c)
	if err != nil {
		return err
	}
	s.log.V(1).Info("composed plan", "cluster", p.Config.Name(), "nodes", p.Topology.Len())
	return c.JSON(p.Summarize())
}

func (s *Server) nodeScript(c *fiber.Ctx) error {
	p, err := s.compose(c)
	if err != nil {
		return err
	}
	sc, ok := p.Script(c.Params("hostname"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("no node named %q in the plan", c.Params("hostname")))
	}
	c.Set(fiber.HeaderContentType, "text/x-shellscript")
	return c.Send(sc.Content)
}

func (s *Server) rules(c *fiber.Ctx) error {
	p, err := s.compose(c)
	if err != nil {
		return err
	}
	return c.JSON(p.Rules)
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error    string                    `json:"error"`
	Findings []errdefs.ValidationError `json:"findings,omitempty"`
}

// errorHandler maps composition errors to status codes: invalid specs are
// 422, missing reused resources 409.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	resp := errorResponse{Error: err.Error()}

	var (
		fe    *fiber.Error
		verrs errdefs.ValidationErrors
	)
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &verrs):
		code = fiber.StatusUnprocessableEntity
		resp.Findings = verrs
	case errdefs.IsMissingResource(err):
		code = fiber.StatusConflict
	}
	return c.Status(code).JSON(resp)
}
