// Package tools matches inbound function-call requests from the remote model
// to local handlers and produces one acknowledgement per dispatched call.
package tools

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain"
	"github.com/prasaja/wicara/domain/repositories"
)

// Handler executes one tool call. The returned map is merged into the
// response result on success. Handlers mutate local state only; they must not
// initiate media traffic.
type Handler func(args map[string]any) (map[string]any, error)

// Dispatcher is a closed lookup table from tool name to handler. The table is
// populated before session start; its declarations are part of the session
// configuration handed to the transport.
type Dispatcher struct {
	logger       *zap.Logger
	handlers     map[string]Handler
	declarations []repositories.ToolDeclaration
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Register adds a tool with its declared schema. Names are unique.
func (d *Dispatcher) Register(decl repositories.ToolDeclaration, handler Handler) error {
	if decl.Name == "" {
		return fmt.Errorf("tool declaration requires a name")
	}
	if handler == nil {
		return fmt.Errorf("tool %q requires a handler", decl.Name)
	}
	if _, exists := d.handlers[decl.Name]; exists {
		return fmt.Errorf("tool %q already registered", decl.Name)
	}
	d.handlers[decl.Name] = handler
	d.declarations = append(d.declarations, decl)
	return nil
}

// Declarations returns the declared tool schema for session configuration
func (d *Dispatcher) Declarations() []repositories.ToolDeclaration {
	out := make([]repositories.ToolDeclaration, len(d.declarations))
	copy(out, d.declarations)
	return out
}

// Dispatch executes a batch of requests and returns the responses to send
// back together, correlated by call ID. Unknown names are skipped with a
// warning; a failing handler yields a failure result instead of propagating,
// so a bad tool call never tears down the session.
func (d *Dispatcher) Dispatch(requests []domain.ToolCallRequest) []domain.ToolCallResponse {
	responses := make([]domain.ToolCallResponse, 0, len(requests))
	for _, req := range requests {
		handler, ok := d.handlers[req.Name]
		if !ok {
			d.logger.Warn("Tool call for unknown tool skipped",
				zap.String("name", req.Name),
				zap.String("callID", req.CallID))
			continue
		}

		result, err := safeCall(handler, req.Args)
		if err != nil {
			d.logger.Warn("Tool handler failed",
				zap.String("name", req.Name),
				zap.String("callID", req.CallID),
				zap.Error(err))
			responses = append(responses, domain.ToolCallResponse{
				CallID: req.CallID,
				Name:   req.Name,
				Result: map[string]any{"status": "failure", "error": err.Error()},
			})
			continue
		}

		merged := map[string]any{"status": "success"}
		for k, v := range result {
			merged[k] = v
		}
		responses = append(responses, domain.ToolCallResponse{
			CallID: req.CallID,
			Name:   req.Name,
			Result: merged,
		})
	}
	return responses
}

func safeCall(handler Handler, args map[string]any) (result map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool handler panicked: %v", rec)
		}
	}()
	return handler(args)
}
