// Package flow provides the flow registry and its manifest loading.
package flow

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/BurntSushi/toml"
)

// manifest is the on-disk catalog declaration. Flow order in the file
// determines option keys, which keeps key assignment explicit and stable
// across reloads.
type manifest struct {
	Flows []manifestEntry `toml:"flow"`
}

type manifestEntry struct {
	Label   string `toml:"label"`
	Handler string `toml:"handler"`
}

type catalogEntry struct {
	def     models.FlowDefinition
	handler Handler
}

// Registry is the catalog of pluggable flows declared in a TOML manifest.
// Reads are lock-cheap and reloads atomically swap the whole catalog, so
// readers never observe a half-built catalog.
type Registry struct {
	manifestPath string
	factories    map[string]Factory

	mu      sync.RWMutex
	entries []catalogEntry
	byName  map[string]Handler
}

// NewRegistry creates a Registry for the given manifest path and handler
// factory table. Call Load before use.
func NewRegistry(manifestPath string, factories map[string]Factory) *Registry {
	return &Registry{
		manifestPath: manifestPath,
		factories:    factories,
		byName:       make(map[string]Handler),
	}
}

// Load reads the manifest and rebuilds the catalog wholesale. Entries with
// missing fields or unknown handler names are skipped with a warning; only a
// manifest that cannot be read or parsed fails the load, in which case the
// previous catalog stays in place.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.manifestPath)
	if err != nil {
		slog.Error("Registry manifest read failed", "error", err, "path", r.manifestPath)
		return fmt.Errorf("failed to read flow manifest %s: %w", r.manifestPath, err)
	}

	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		slog.Error("Registry manifest parse failed", "error", err, "path", r.manifestPath)
		return fmt.Errorf("failed to parse flow manifest %s: %w", r.manifestPath, err)
	}

	entries := make([]catalogEntry, 0, len(m.Flows))
	byName := make(map[string]Handler, len(m.Flows))
	for _, fe := range m.Flows {
		if fe.Label == "" || fe.Handler == "" {
			slog.Warn("Registry skipping manifest entry with missing fields", "label", fe.Label, "handler", fe.Handler)
			continue
		}
		factory, ok := r.factories[fe.Handler]
		if !ok {
			slog.Warn("Registry skipping manifest entry with unknown handler", "label", fe.Label, "handler", fe.Handler)
			continue
		}
		def := models.FlowDefinition{
			Key:     len(entries) + 1, // dense keys from 1, manifest order
			Label:   fe.Label,
			Handler: fe.Handler,
		}
		handler := factory()
		entries = append(entries, catalogEntry{def: def, handler: handler})
		byName[fe.Handler] = handler
	}

	r.mu.Lock()
	r.entries = entries
	r.byName = byName
	r.mu.Unlock()

	slog.Info("Registry catalog loaded", "path", r.manifestPath, "flows", len(entries))
	return nil
}

// Resolve returns the flow assigned the given option key.
func (r *Registry) Resolve(key int) (Handler, models.FlowDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key < 1 || key > len(r.entries) {
		return nil, models.FlowDefinition{}, false
	}
	e := r.entries[key-1]
	return e.handler, e.def, true
}

// HandlerByName returns the handler for an active flow by its handler name.
func (r *Registry) HandlerByName(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// Catalog returns a snapshot of the flow definitions in key order.
func (r *Registry) Catalog() []models.FlowDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]models.FlowDefinition, len(r.entries))
	for i, e := range r.entries {
		defs[i] = e.def
	}
	return defs
}
