// ABOUTME: Tool and pack types binding catalog descriptors to in-process handlers.
// ABOUTME: Every backend adapter exposes its tools as one Pack.

package packs

import (
	"github.com/2389/cloud-mcp/internal/adapter"
	"github.com/2389/cloud-mcp/internal/catalog"
)

// Tool is a descriptor together with the handler that executes it.
type Tool struct {
	Definition catalog.Tool
	Handler    adapter.Handler
}

// Pack is a named collection of tools served by one backend adapter.
type Pack struct {
	ID      string
	Version string
	Tools   []*Tool
}

// Names returns the pack's tool names in declaration order.
func (p *Pack) Names() []string {
	names := make([]string, len(p.Tools))
	for i, t := range p.Tools {
		names[i] = t.Definition.Name
	}
	return names
}

// entry stores a tool with its pack ID for registry lookup.
type entry struct {
	Tool   *Tool
	PackID string
}
