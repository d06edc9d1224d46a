// ABOUTME: Thread-safe registry for tool packs and their handlers.
// ABOUTME: Detects name collisions across packs and builds the ordered tool catalog.

package packs

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/cloud-mcp/internal/catalog"
)

// ErrPackAlreadyRegistered indicates a pack with the same ID is already registered.
var ErrPackAlreadyRegistered = errors.New("pack already registered")

// ErrToolCollision indicates a tool name already exists from another pack.
var ErrToolCollision = errors.New("tool name collision")

// ErrMissingHandler indicates a tool was registered without a handler.
var ErrMissingHandler = errors.New("tool has no handler")

// Registry maintains the registered packs and the global tool table.
type Registry struct {
	mu      sync.RWMutex
	packs   map[string]*Pack
	order   []string          // pack IDs in registration order
	tools   map[string]*entry // global tool name -> entry
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		packs:   make(map[string]*Pack),
		tools:   make(map[string]*entry),
		catalog: catalog.MustNew(),
		logger:  logger,
	}
}

// RegisterPack validates and stores a pack and its tools.
// Returns ErrPackAlreadyRegistered if a pack with the same ID exists,
// ErrToolCollision if any tool name is already taken, and a catalog
// error if a descriptor is invalid. On error nothing is registered.
func (r *Registry) RegisterPack(pack *Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packs[pack.ID]; exists {
		return fmt.Errorf("%w: %s", ErrPackAlreadyRegistered, pack.ID)
	}

	for _, tool := range pack.Tools {
		name := tool.Definition.Name
		if existing, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: tool '%s' already registered by pack '%s'",
				ErrToolCollision, name, existing.PackID)
		}
		if tool.Handler == nil {
			return fmt.Errorf("%w: %s", ErrMissingHandler, name)
		}
	}

	// Rebuild the catalog first so an invalid descriptor leaves state untouched.
	defs := r.catalog.List()
	for _, tool := range pack.Tools {
		defs = append(defs, tool.Definition)
	}
	cat, err := catalog.New(defs...)
	if err != nil {
		return fmt.Errorf("pack %s: %w", pack.ID, err)
	}

	for _, tool := range pack.Tools {
		r.tools[tool.Definition.Name] = &entry{Tool: tool, PackID: pack.ID}
	}
	r.packs[pack.ID] = pack
	r.order = append(r.order, pack.ID)
	r.catalog = cat

	r.logger.Info("=== PACK REGISTERED ===",
		"pack_id", pack.ID,
		"version", pack.Version,
		"tool_count", len(pack.Tools),
		"total_packs", len(r.packs),
		"total_tools", len(r.tools),
	)

	return nil
}

// GetPack retrieves a pack by its ID.
func (r *Registry) GetPack(packID string) *Pack {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.packs[packID]
}

// GetToolByName finds a tool by its name and returns it with its owning pack ID.
func (r *Registry) GetToolByName(name string) (*Tool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.tools[name]
	if !exists {
		return nil, ""
	}
	return e.Tool, e.PackID
}

// Catalog returns the catalog of every registered tool, in pack
// registration order and then declaration order within each pack.
func (r *Registry) Catalog() *catalog.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.catalog
}

// PackInfo contains public information about a registered pack.
type PackInfo struct {
	ID        string
	Version   string
	ToolNames []string
}

// ListPacks returns information about all registered packs in registration order.
func (r *Registry) ListPacks() []PackInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	packs := make([]PackInfo, 0, len(r.order))
	for _, id := range r.order {
		pack := r.packs[id]
		packs = append(packs, PackInfo{
			ID:        pack.ID,
			Version:   pack.Version,
			ToolNames: pack.Names(),
		})
	}
	return packs
}
