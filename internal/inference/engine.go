// Package inference is the boundary to the external natural-language engine.
//
// The engine is opaque to the rest of the system: it receives a system
// instruction, the message history, and the published tool schemas, and
// returns text plus zero or more tool calls. Failures and timeouts surface
// as ErrInference — a turn failure, never a crash — and, since tool calls
// only execute after a successful response, no state has been mutated when
// an inference error is returned.
package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/avictorio/taskpilot/internal/catalog"
)

// ErrInference marks any engine failure, including timeouts.
var ErrInference = errors.New("inference: engine failure")

// Engine is the opaque inference function the agent calls once or twice per
// turn. Implementations must not be handed any session lock.
type Engine interface {
	Infer(ctx context.Context, system string, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error)
}

// ─── Ark engine ──────────────────────────────────────────────────────────────

// Config holds the Ark chat-model settings.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
	MaxTokens   *int
	Timeout     time.Duration
}

// ArkEngine implements Engine over an Ark chat model.
type ArkEngine struct {
	model   model.ChatModel
	timeout time.Duration

	// BindTools mutates the model, so tools are bound once. The catalog's
	// toolset is fixed for the process lifetime.
	mu    sync.Mutex
	bound bool
}

// NewArk constructs the Ark-backed engine.
func NewArk(ctx context.Context, cfg Config) (*ArkEngine, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("inference: ARK_API_KEY and ARK_MODEL are required")
	}
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("inference: create chat model: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ArkEngine{model: cm, timeout: timeout}, nil
}

// Infer runs one model round-trip under the configured timeout.
func (e *ArkEngine) Infer(ctx context.Context, system string, messages []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	if len(tools) > 0 {
		if err := e.bindTools(tools); err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", ErrInference, err)
		}
	}

	msgs := make([]*schema.Message, 0, len(messages)+1)
	msgs = append(msgs, schema.SystemMessage(system))
	msgs = append(msgs, messages...)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.model.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return resp, nil
}

func (e *ArkEngine) bindTools(tools []*schema.ToolInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bound {
		return nil
	}
	if err := e.model.BindTools(tools); err != nil {
		return err
	}
	e.bound = true
	return nil
}

// ─── Schema conversion ───────────────────────────────────────────────────────

// ToolInfos converts the catalog's published specs into the engine's tool
// schema representation.
func ToolInfos(specs []catalog.Spec) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(specs))
	for _, spec := range specs {
		params := make(map[string]*schema.ParameterInfo, len(spec.Params))
		for _, p := range spec.Params {
			params[p.Name] = &schema.ParameterInfo{
				Type:     dataType(p.Type),
				Desc:     p.Description,
				Required: p.Required,
				Enum:     p.Enum,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        spec.Name,
			Desc:        spec.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

func dataType(t catalog.Type) schema.DataType {
	switch t {
	case catalog.TypeInteger:
		return schema.Integer
	case catalog.TypeNumber:
		return schema.Number
	case catalog.TypeBoolean:
		return schema.Boolean
	default:
		return schema.String
	}
}
