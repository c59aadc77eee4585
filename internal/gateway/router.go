package gateway

// #region imports
import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pepper-tutor/go-brain/internal/config"
	"github.com/pepper-tutor/go-brain/internal/prompt"
)

// #endregion

// #region router

// Router maps task types to backend routes and performs single physical
// calls. It does not retry; the dispatch layer owns that policy.
type Router struct {
	routes   map[string]config.Route
	backends map[string]Backend
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRouter wires the route table to the built backend adapters. Every route
// must name a backend that exists in the adapter map.
func NewRouter(routes map[string]config.Route, backends map[string]Backend, timeout time.Duration, logger *zap.Logger) (*Router, error) {
	for task, route := range routes {
		if _, ok := backends[route.Backend]; !ok {
			return nil, fmt.Errorf("route for task %q names unknown backend %q", task, route.Backend)
		}
	}
	return &Router{
		routes:   routes,
		backends: backends,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Route resolves the backend route for a task type without performing any
// network call. Unmapped task types yield UnroutedTaskError.
func (r *Router) Route(task prompt.TaskType) (config.Route, error) {
	route, ok := r.routes[string(task)]
	if !ok {
		return config.Route{}, &UnroutedTaskError{Task: task}
	}
	return route, nil
}

// Dispatch resolves the route for the task, flattens the prompt, and makes
// exactly one call against the routed backend under the per-call timeout.
func (r *Router) Dispatch(ctx context.Context, p *prompt.Prompt, task prompt.TaskType) (string, config.Route, error) {
	route, err := r.Route(task)
	if err != nil {
		return "", config.Route{}, err
	}
	backend := r.backends[route.Backend]

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := backend.Invoke(callCtx, Request{
		Model:       route.Model,
		Prompt:      p.Flatten(),
		MaxTokens:   route.MaxTokens,
		Temperature: route.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		// Surface the deadline as the cause when the call ran out of time,
		// so the dispatch layer classifies it as a timeout rather than a
		// generic transport fault.
		if callCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("backend %s call exceeded %v: %w", backend.ID(), r.timeout, context.DeadlineExceeded)
		}
		r.logger.Warn("backend call failed",
			zap.String("task", string(task)),
			zap.String("backend", backend.ID()),
			zap.String("model", route.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", route, err
	}

	r.logger.Debug("backend call completed",
		zap.String("task", string(task)),
		zap.String("backend", backend.ID()),
		zap.String("model", route.Model),
		zap.Duration("elapsed", elapsed),
		zap.Int("response_len", len(text)))
	return text, route, nil
}

// #endregion
