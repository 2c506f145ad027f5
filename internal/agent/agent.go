// Package agent orchestrates one conversation turn: load the session, build
// the bounded context, call the inference engine, execute any tool calls it
// proposes, persist the turn, and return the reply.
//
// The engine round-trip is the only long-latency step and runs without any
// session lock held; locking happens inside the session manager, scoped to
// each operation's read-modify-write. A turn abandoned before the engine
// responds has mutated nothing.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/schema"

	"github.com/avictorio/taskpilot/internal/catalog"
	"github.com/avictorio/taskpilot/internal/inference"
	"github.com/avictorio/taskpilot/internal/prompt"
	"github.com/avictorio/taskpilot/internal/session"
	"github.com/avictorio/taskpilot/internal/state"
)

// TurnResult is the outcome of one StartTurn call.
type TurnResult struct {
	SessionID     string
	AssistantText string
	// Applied holds one outcome record per tool invocation the engine
	// requested, in execution order — including failed and zero-effect ones.
	Applied []catalog.Result
}

// Agent runs conversation turns against sessions.
type Agent struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	engine    inference.Engine
	promptCfg prompt.Config
	log       *slog.Logger
}

// New wires an Agent. A nil logger falls back to slog.Default.
func New(sessions *session.Manager, cat *catalog.Catalog, engine inference.Engine, promptCfg prompt.Config, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		sessions:  sessions,
		catalog:   cat,
		engine:    engine,
		promptCfg: promptCfg,
		log:       log,
	}
}

// StartTurn processes one user message for the (appName, userID) session and
// returns the assistant's reply plus the operations that were applied.
// Typed errors: inference.ErrInference (engine failure/timeout, no state
// mutated), session.ErrConflict and store.ErrStorage (persist failure),
// store.ErrNotFound.
func (a *Agent) StartTurn(ctx context.Context, appName, userID, userText string) (*TurnResult, error) {
	sess, err := a.sessions.GetOrCreate(appName, userID, state.New())
	if err != nil {
		return nil, err
	}
	log := a.log.With("session_id", sess.ID)

	contextBlock := prompt.Build(sess.State, sess.History, a.promptCfg)
	msgs := historyMessages(sess.History)
	msgs = append(msgs, schema.UserMessage(contextBlock+"\n\nCurrent User Message: "+userText))
	tools := inference.ToolInfos(a.catalog.Specs())

	resp, err := a.engine.Infer(ctx, prompt.SystemInstruction, msgs, tools)
	if err != nil {
		return nil, err
	}

	var applied []catalog.Result
	assistantText := resp.Content

	if len(resp.ToolCalls) > 0 {
		toolMsgs := make([]*schema.Message, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			res, err := a.execute(sess.ID, call)
			applied = append(applied, res)
			if err != nil {
				return nil, err
			}
			log.Info("tool executed",
				"tool", call.Function.Name, "status", res.Status, "count", res.Count)

			payload, merr := json.Marshal(res)
			if merr != nil {
				return nil, fmt.Errorf("agent: encode tool result: %w", merr)
			}
			toolMsgs = append(toolMsgs, schema.ToolMessage(string(payload), call.ID))
		}

		// Second round-trip: let the engine phrase the outcome.
		followUp := append(msgs, resp)
		followUp = append(followUp, toolMsgs...)
		final, err := a.engine.Infer(ctx, prompt.SystemInstruction, followUp, tools)
		if err != nil {
			return nil, err
		}
		assistantText = final.Content
	}

	if err := a.sessions.AppendHistory(sess.ID,
		state.Turn{Role: state.RoleUser, Content: userText},
		state.Turn{Role: state.RoleAssistant, Content: assistantText},
	); err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID:     sess.ID,
		AssistantText: assistantText,
		Applied:       applied,
	}, nil
}

// execute runs one requested tool call. Schema violations are recovered
// locally — the failed outcome record feeds back to the engine and the
// conversation continues. Anything else aborts the turn.
func (a *Agent) execute(sessionID string, call schema.ToolCall) (catalog.Result, error) {
	raw := map[string]any{}
	if args := call.Function.Arguments; args != "" {
		if err := json.Unmarshal([]byte(args), &raw); err != nil {
			return catalog.Result{
				Action: call.Function.Name,
				Status: catalog.StatusError,
				Message: fmt.Sprintf("malformed tool arguments: %v", err),
			}, nil
		}
	}

	res, err := a.catalog.Execute(sessionID, call.Function.Name, raw)
	if err != nil && !errors.Is(err, catalog.ErrInvalidArgument) {
		return res, err
	}
	return res, nil
}

// historyMessages converts the retained turns into engine messages.
func historyMessages(history []state.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(history)+1)
	for _, t := range history {
		switch t.Role {
		case state.RoleUser:
			msgs = append(msgs, schema.UserMessage(t.Content))
		case state.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(t.Content, nil))
		}
	}
	return msgs
}
