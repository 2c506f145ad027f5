// Package catalog implements the named operation set an external inference
// engine may invoke against a session's state.
//
// Every operation publishes a declared parameter schema (name, type,
// required, default) so the engine can call it with structured arguments.
// Arguments are validated before dispatch; the operation itself runs as a
// single UpdateState transaction through the session manager, so two
// operations on the same session never interleave. Results are small
// structured records — never the full state.
package catalog

import (
	"errors"
	"fmt"

	"github.com/avictorio/taskpilot/internal/session"
	"github.com/avictorio/taskpilot/internal/state"
)

// ErrInvalidArgument is returned when a call does not satisfy an operation's
// parameter schema. No state is mutated; the conversation continues.
var ErrInvalidArgument = errors.New("catalog: invalid argument")

// ─── Schema ──────────────────────────────────────────────────────────────────

// Type is a parameter's wire type.
type Type string

// Parameter types.
const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
)

// Param declares one operation parameter.
type Param struct {
	Name        string   `json:"name"`
	Type        Type     `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     any      `json:"default,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Spec is the published contract of one operation. Adding operations is
// backward compatible; renaming or removing one is a breaking change.
type Spec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

// Result is the outcome record of one operation invocation. Every invocation
// yields one — a failed or zero-effect call is still reported explicitly.
type Result struct {
	Action   string   `json:"action"`
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Count    int      `json:"count,omitempty"`
	Affected []string `json:"affected_projects,omitempty"`
	Matches  any      `json:"matches,omitempty"`
}

// Result statuses, mirroring the outcome vocabulary the engine is prompted
// to interpret.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
	StatusMultiple = "multiple_matches"
)

// Args holds validated, defaulted arguments for a handler.
type Args map[string]any

// String returns a string argument; validation guarantees the type.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// Bool returns a boolean argument.
func (a Args) Bool(key string) bool {
	v, _ := a[key].(bool)
	return v
}

// Handler executes one operation against the state. Handlers run inside an
// UpdateState transaction; a non-success Result must leave the state
// untouched.
type Handler func(st *state.State, args Args) Result

// Operation couples a spec with its handler.
type Operation struct {
	Spec    Spec
	handler Handler
}

// ─── Catalog ─────────────────────────────────────────────────────────────────

// Catalog dispatches named operations against sessions.
type Catalog struct {
	sessions *session.Manager
	ops      []*Operation
	byName   map[string]*Operation
}

// New builds the catalog with the full operation set registered.
func New(sessions *session.Manager) *Catalog {
	c := &Catalog{
		sessions: sessions,
		byName:   make(map[string]*Operation),
	}
	c.registerAll()
	return c
}

// register adds one operation. Panics on duplicate names: the catalog is
// assembled once at startup and a collision is a programming error.
func (c *Catalog) register(spec Spec, h Handler) {
	if _, exists := c.byName[spec.Name]; exists {
		panic(fmt.Sprintf("catalog: duplicate operation %q", spec.Name))
	}
	op := &Operation{Spec: spec, handler: h}
	c.ops = append(c.ops, op)
	c.byName[spec.Name] = op
}

// Specs returns every published operation spec in registration order.
func (c *Catalog) Specs() []Spec {
	specs := make([]Spec, len(c.ops))
	for i, op := range c.ops {
		specs[i] = op.Spec
	}
	return specs
}

// Execute validates raw arguments against the named operation's schema and
// runs it as one UpdateState transaction on the session. A schema violation
// returns a failed Result plus an error satisfying ErrInvalidArgument,
// without touching state. Infrastructure failures (unknown session, storage)
// surface as the session manager's errors.
func (c *Catalog) Execute(sessionID, name string, raw map[string]any) (Result, error) {
	op, ok := c.byName[name]
	if !ok {
		err := fmt.Errorf("%w: unknown operation %q", ErrInvalidArgument, name)
		return Result{Action: name, Status: StatusError, Message: err.Error()}, err
	}

	args, err := validate(op.Spec, raw)
	if err != nil {
		return Result{Action: name, Status: StatusError, Message: err.Error()}, err
	}

	var res Result
	_, err = c.sessions.UpdateState(sessionID, func(st *state.State) error {
		res = op.handler(st, args)
		return nil
	})
	if err != nil {
		return Result{Action: name, Status: StatusError, Message: err.Error()}, err
	}
	return res, nil
}

// ─── Validation ──────────────────────────────────────────────────────────────

// validate checks raw against the spec, applies defaults, and coerces JSON
// numbers. Arguments not declared in the schema are ignored.
func validate(spec Spec, raw map[string]any) (Args, error) {
	args := make(Args, len(spec.Params))
	for _, p := range spec.Params {
		v, present := raw[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, fmt.Errorf("%w: %s: missing required parameter %q",
					ErrInvalidArgument, spec.Name, p.Name)
			}
			if p.Default != nil {
				args[p.Name] = p.Default
			}
			continue
		}

		coerced, err := coerce(p, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, spec.Name, err)
		}
		args[p.Name] = coerced
	}
	return args, nil
}

func coerce(p Param, v any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected string, got %T", p.Name, v)
		}
		if len(p.Enum) > 0 && !inEnum(p.Enum, s) {
			return nil, fmt.Errorf("parameter %q: %q is not one of %v", p.Name, s, p.Enum)
		}
		return s, nil
	case TypeInteger:
		switch n := v.(type) {
		case int:
			return n, nil
		case float64:
			if n != float64(int(n)) {
				return nil, fmt.Errorf("parameter %q: expected integer, got %v", p.Name, n)
			}
			return int(n), nil
		}
		return nil, fmt.Errorf("parameter %q: expected integer, got %T", p.Name, v)
	case TypeNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
		return nil, fmt.Errorf("parameter %q: expected number, got %T", p.Name, v)
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected boolean, got %T", p.Name, v)
		}
		return b, nil
	}
	return nil, fmt.Errorf("parameter %q: unknown type %q", p.Name, p.Type)
}

func inEnum(enum []string, s string) bool {
	for _, e := range enum {
		if e == s {
			return true
		}
	}
	return false
}
