// Package catalog defines the closed set of model identifiers the gateway
// accepts and their mapping onto the upstream backend.
//
// Each public model ID maps to a backend model name plus a set of action
// flags ("deep" for deep reasoning, "online" for web search) that the
// upstream expects in its chat payload. The catalog is resolved once at
// startup into an immutable lookup table; request handling only reads it.
package catalog

import (
	"fmt"
	"strings"
)

// DefaultModel is the model substituted when a request names an ID the
// catalog does not know. Unknown models are never an error to the caller.
const DefaultModel = "deepseek-v3"

// Entry describes one model the gateway can serve.
type Entry struct {
	// ID is the public, OpenAI-style model identifier (e.g. "deepseek-r1-search").
	ID string

	// BackendModel is the model name sent to the upstream backend.
	BackendModel string

	// Actions are the upstream action flags for this model, in the order the
	// upstream expects them (e.g. ["deep", "online"]).
	Actions []string

	// DeferCards indicates that reference cards arriving mid-stream are held
	// back and appended after the main answer body instead of being emitted
	// inline. Only the deepseek-r1 family behaves this way.
	DeferCards bool

	// listed controls whether the entry appears in the public model list.
	// Legacy aliases resolve but are not advertised.
	listed bool
}

// UserAction returns the comma-joined action string the upstream chat
// payload carries ("" when the model has no flags).
func (e Entry) UserAction() string {
	return strings.Join(e.Actions, ",")
}

// Catalog is the immutable model lookup table. Safe for concurrent use.
type Catalog struct {
	entries   map[string]Entry
	listed    []string
	defaultID string
}

// entryDef is one row of the built-in model table.
type entryDef struct {
	id         string
	backend    string
	actions    []string
	deferCards bool
	listed     bool
}

// builtinModels is the full upstream mapping. The qwen/qwen-search aliases
// resolve for old clients but are not listed. Note the upstream quirk:
// qwq-plus-search uses the "search" flag where every other search variant
// uses "online".
var builtinModels = []entryDef{
	{id: "deepseek-r1", backend: "deepseek", actions: []string{"deep"}, deferCards: true, listed: true},
	{id: "deepseek-r1-search", backend: "deepseek", actions: []string{"deep", "online"}, deferCards: true, listed: true},
	{id: "deepseek-v3", backend: "deepseek", actions: []string{}, listed: true},
	{id: "deepseek-v3-search", backend: "deepseek", actions: []string{"online"}, listed: true},
	{id: "doubao", backend: "doubao", actions: []string{}, listed: true},
	{id: "doubao-search", backend: "doubao", actions: []string{"online"}, listed: true},
	{id: "doubao-thinking", backend: "doubao-thinking", actions: []string{"deep"}, listed: true},
	{id: "doubao-thinking-search", backend: "doubao-thinking", actions: []string{"deep", "online"}, listed: true},
	{id: "qwen", backend: "qwen", actions: []string{}},
	{id: "qwen-search", backend: "qwen", actions: []string{"online"}},
	{id: "qwen-plus", backend: "qwen-plus", actions: []string{}, listed: true},
	{id: "qwen-plus-search", backend: "qwen-plus", actions: []string{"online"}, listed: true},
	{id: "qwq-plus", backend: "qwq-plus", actions: []string{"deep"}, listed: true},
	{id: "qwq-plus-search", backend: "qwq-plus", actions: []string{"deep", "search"}, listed: true},
	{id: "qwen-long", backend: "qwen-long", actions: []string{}, listed: true},
	{id: "qwen-long-search", backend: "qwen-long", actions: []string{"online"}, listed: true},
	{id: "moonshot-v1-32k", backend: "moonshot", actions: []string{}, listed: true},
	{id: "moonshot-v1-32k-search", backend: "moonshot", actions: []string{"online"}, listed: true},
	{id: "ernie-4.5-turbo-32k", backend: "ernie-4.5-turbo", actions: []string{}, listed: true},
	{id: "ernie-4.5-turbo-32k-search", backend: "ernie-4.5-turbo", actions: []string{"online"}, listed: true},
}

// New builds the catalog with the given default model ID. It returns an
// error if the default is not a known model.
func New(defaultID string) (*Catalog, error) {
	if defaultID == "" {
		defaultID = DefaultModel
	}

	c := &Catalog{
		entries:   make(map[string]Entry, len(builtinModels)),
		defaultID: defaultID,
	}

	for _, def := range builtinModels {
		e := Entry{
			ID:           def.id,
			BackendModel: def.backend,
			Actions:      def.actions,
			DeferCards:   def.deferCards,
			listed:       def.listed,
		}
		c.entries[def.id] = e
		if def.listed {
			c.listed = append(c.listed, def.id)
		}
	}

	if _, ok := c.entries[defaultID]; !ok {
		return nil, fmt.Errorf("default model %q is not in the catalog", defaultID)
	}

	return c, nil
}

// MustNew builds the catalog and panics on an invalid default. Intended for
// startup paths where the default comes from validated configuration.
func MustNew(defaultID string) *Catalog {
	c, err := New(defaultID)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the entry for id and whether it exists.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Lookup consults the built-in model table without requiring a constructed
// catalog. Configuration validation uses it to check model IDs before any
// catalog exists.
func Lookup(id string) (Entry, bool) {
	for _, def := range builtinModels {
		if def.id == id {
			return Entry{
				ID:           def.id,
				BackendModel: def.backend,
				Actions:      def.actions,
				DeferCards:   def.deferCards,
				listed:       def.listed,
			}, true
		}
	}
	return Entry{}, false
}

// Resolve returns the entry for id, falling back to the configured default
// model when id is unknown. The returned entry's ID reports which model is
// actually in effect.
func (c *Catalog) Resolve(id string) Entry {
	if e, ok := c.entries[id]; ok {
		return e
	}
	return c.entries[c.defaultID]
}

// DefaultID returns the configured default model identifier.
func (c *Catalog) DefaultID() string {
	return c.defaultID
}

// List returns the publicly advertised entries in stable, definition order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.listed))
	for _, id := range c.listed {
		out = append(out, c.entries[id])
	}
	return out
}

// Size returns the number of resolvable entries, including unlisted aliases.
func (c *Catalog) Size() int {
	return len(c.entries)
}
