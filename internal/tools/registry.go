package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fundsight/analyst/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// Registry binds tool names to descriptors. It is filled once at startup
// and read-only afterwards.
type Registry struct {
	tools []Tool
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register binds fn under name with a single free-text parameter.
func (r *Registry) Register(name, description string, fn Func) (Tool, error) {
	if fn == nil {
		return Tool{}, fmt.Errorf("tool %q: nil function", name)
	}
	t := Tool{
		Name:        name,
		Description: description,
		InputSchema: StringSchema(DefaultParam, "Free-text input for the tool."),
		Execute:     fn,
	}
	if err := r.Add(t); err != nil {
		return Tool{}, err
	}
	return t, nil
}

// Add registers a fully built descriptor. Names must be non-empty and unique.
func (r *Registry) Add(t Tool) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tool name is empty")
	}
	if t.Execute == nil {
		return fmt.Errorf("tool %q: nil function", t.Name)
	}
	if _, exists := r.index[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	if t.InputSchema == nil {
		t.InputSchema = StringSchema(DefaultParam, "Free-text input for the tool.")
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
	return nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// Dispatch invokes the tool registered under name. Unknown names yield an
// error wrapping models.ErrToolNotFound; nothing is executed. A panicking
// tool yields an error wrapping models.ErrToolExecution.
func (r *Registry) Dispatch(ctx context.Context, name, argument string) (output string, err error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", models.ErrToolNotFound, name, strings.Join(r.Names(), ", "))
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("tool", name).
				Msg("tool panic recovered")
			output, err = "", fmt.Errorf("%w: %s panicked: %v", models.ErrToolExecution, name, rec)
		}
	}()
	return t.Execute(ctx, argument), nil
}

// ArgumentFromJSON extracts the single string argument from the model's raw
// tool input. A bare JSON string is used as is; for an object the first
// string-valued property wins. Anything else is passed through verbatim.
func ArgumentFromJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	res := gjson.ParseBytes(raw)
	switch {
	case res.Type == gjson.String:
		return res.String()
	case res.IsObject():
		var arg string
		found := false
		res.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String || v.Type == gjson.Number {
				arg, found = v.String(), true
				return false
			}
			return true
		})
		if found {
			return arg
		}
		return ""
	default:
		return strings.TrimSpace(string(raw))
	}
}
