package formula

import (
	"strconv"
	"sync"
)

// ProgramCache stores compiled programs keyed by engine, function
// registry and rendered expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type mapCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMapCache returns an unbounded in-memory ProgramCache.
func NewMapCache() ProgramCache {
	return &mapCache{entries: map[string]any{}}
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// cacheKey separates programs compiled against registries that bind the
// same function names to different implementations.
func cacheKey(engine string, registry *FunctionRegistry, expression string) string {
	return engine + ":" + strconv.FormatUint(registry.identity(), 10) + ":" + expression
}
