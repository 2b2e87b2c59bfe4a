package server

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/hupe1980/agentrouter/core"
	"github.com/hupe1980/agentrouter/dispatcher"
	"github.com/hupe1980/agentrouter/history"
	"github.com/hupe1980/agentrouter/internal/util"
	"github.com/hupe1980/agentrouter/workflow"
)

const (
	defaultInvocationLimit = 50
	maxInvocationLimit     = 1000
)

func (s *Server) index(c *fiber.Ctx) error {
	return c.SendString("Welcome to agentrouter!")
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: s.opts.Version,
	})
}

func (s *Server) countTokens(c *fiber.Ctx) error {
	var req TokenCountRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	count := util.CountTokens(req.Text)
	s.logger.Debug("Counted tokens", "count", count)

	return c.JSON(TokenCountResponse{Count: count})
}

func (s *Server) route(c *fiber.Ctx) error {
	var req RouteRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if req.Task == nil {
		return fiber.NewError(fiber.StatusBadRequest, "task is required")
	}

	s.logger.Info("Routing task", "task", *req.Task, "agent", req.Agent)

	inv, err := s.dispatcher.Route(c.UserContext(), core.NewTask(*req.Task, req.Context), req.Agent)

	resp := routeResponse(inv, err)
	if err != nil {
		s.logger.Error("Routing failed", "task", *req.Task, "error", err)
		return c.Status(routeStatus(err)).JSON(resp)
	}

	return c.JSON(resp)
}

func (s *Server) routeBatch(c *fiber.Ctx) error {
	var req BatchRouteRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if len(req.Tasks) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "tasks must not be empty")
	}

	tasks := make([]core.Task, len(req.Tasks))
	for i, r := range req.Tasks {
		if r.Task == nil {
			return fiber.NewError(fiber.StatusBadRequest, "task is required for every batch entry")
		}
		if r.Agent != "" && r.Agent != req.Agent {
			return fiber.NewError(fiber.StatusBadRequest, "per-task agent is not supported, set agent on the batch")
		}
		tasks[i] = core.NewTask(*r.Task, r.Context)
	}

	results := s.dispatcher.RouteBatch(c.UserContext(), tasks, req.Agent)

	resp := BatchRouteResponse{Results: make([]RouteResponse, len(results))}
	for i, r := range results {
		resp.Results[i] = routeResponse(r.Invocation, r.Err)
	}

	return c.JSON(resp)
}

func (s *Server) executeWorkflow(c *fiber.Ctx) error {
	var req ExecuteRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if strings.TrimSpace(req.Phase) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phase is required")
	}

	if req.Task == nil {
		return fiber.NewError(fiber.StatusBadRequest, "task is required")
	}

	phase, err := s.dispatcher.Engine().ParsePhase(req.Phase)
	if err != nil {
		return c.Status(executeStatus(err)).JSON(ExecuteResponse{
			Status: StatusError,
			Phase:  string(phase),
			Error:  err.Error(),
		})
	}

	inv, err := s.dispatcher.Execute(c.UserContext(), phase, core.NewTask(*req.Task, req.Context), req.Agent)
	if err != nil {
		s.logger.Error("Workflow step failed", "phase", string(phase), "task", *req.Task, "error", err)
		return c.Status(executeStatus(err)).JSON(ExecuteResponse{
			Status:       StatusError,
			Phase:        string(phase),
			Invoked:      inv.Invoked,
			Error:        err.Error(),
			InvocationID: inv.ID,
		})
	}

	return c.JSON(ExecuteResponse{
		Status:       StatusSuccess,
		Phase:        inv.Phase,
		NextPhase:    inv.NextPhase,
		Invoked:      inv.Invoked,
		Result:       inv.Result,
		InvocationID: inv.ID,
	})
}

func (s *Server) listAgents(c *fiber.Ctx) error {
	infos := s.dispatcher.Agents()

	resp := AgentsResponse{Agents: make([]AgentResponse, len(infos))}
	for i, info := range infos {
		resp.Agents[i] = AgentResponse{
			Name:        info.Name,
			Description: info.Description,
			Default:     info.Default,
		}
	}

	return c.JSON(resp)
}

func (s *Server) listInvocations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultInvocationLimit)
	if limit <= 0 || limit > maxInvocationLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 1000")
	}

	invs, err := s.dispatcher.History().List(limit)
	if err != nil {
		return err
	}

	return c.JSON(InvocationsResponse{Invocations: invs})
}

func (s *Server) getInvocation(c *fiber.Ctx) error {
	inv, err := s.dispatcher.History().Get(c.Params("id"))
	if errors.Is(err, history.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "invocation not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(inv)
}

func decode(c *fiber.Ctx, v any) error {
	if err := sonic.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

func routeResponse(inv core.Invocation, err error) RouteResponse {
	if err != nil {
		return RouteResponse{
			Status:       StatusError,
			Result:       map[string]any{"error": err.Error()},
			InvocationID: inv.ID,
		}
	}

	return RouteResponse{
		Status:       StatusSuccess,
		Result:       inv.Result,
		Phase:        inv.NextPhase,
		InvocationID: inv.ID,
	}
}

func routeStatus(err error) int {
	if errors.Is(err, dispatcher.ErrAgentNotFound) {
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func executeStatus(err error) int {
	var (
		unknown  *workflow.UnknownStateError
		terminal *workflow.TerminalStateError
		phaseErr *workflow.PhaseError
	)

	switch {
	case errors.Is(err, dispatcher.ErrAgentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dispatcher.ErrNoAgents):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &unknown):
		return fiber.StatusBadRequest
	case errors.As(err, &terminal):
		return fiber.StatusConflict
	case errors.As(err, &phaseErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
