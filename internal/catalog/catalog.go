// ABOUTME: Immutable, ordered set of tool descriptors advertised to clients.
// ABOUTME: Validates names and schemas once at startup; read-only afterwards.

package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateTool indicates two tools share a name.
var ErrDuplicateTool = errors.New("duplicate tool name")

// ErrInvalidSchema indicates a malformed tool input schema.
var ErrInvalidSchema = errors.New("invalid input schema")

// Tool describes one invocable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`
}

// RequiredFields returns the names that must be present in a call.
func (t Tool) RequiredFields() []string {
	return slices.Clone(t.InputSchema.Required)
}

// MissingArguments returns the required fields absent from args, in
// declaration order. A nil value counts as absent.
func (t Tool) MissingArguments(args map[string]any) []string {
	var missing []string
	for _, name := range t.InputSchema.Required {
		if v, ok := args[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Catalog is the fixed list of tools one server exposes.
type Catalog struct {
	tools []Tool
	index map[string]int
}

// New validates tools and builds a catalog in the given order.
func New(tools ...Tool) (*Catalog, error) {
	c := &Catalog{
		tools: make([]Tool, 0, len(tools)),
		index: make(map[string]int, len(tools)),
	}
	for _, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tool with empty name", ErrInvalidSchema)
		}
		if _, exists := c.index[t.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
		}
		if err := t.InputSchema.validate(); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		t.InputSchema = t.InputSchema.clone()
		c.index[t.Name] = len(c.tools)
		c.tools = append(c.tools, t)
	}
	return c, nil
}

// MustNew is New that panics on error, for package-level catalogs.
func MustNew(tools ...Tool) *Catalog {
	c, err := New(tools...)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns every tool in declaration order. The result is a deep copy.
func (c *Catalog) List() []Tool {
	out := make([]Tool, len(c.tools))
	for i, t := range c.tools {
		t.InputSchema = t.InputSchema.clone()
		out[i] = t
	}
	return out
}

// Lookup finds a tool by exact name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	i, ok := c.index[name]
	if !ok {
		return Tool{}, false
	}
	return c.tools[i], true
}

// Names returns tool names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.tools)
}
