package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Dialect maps completion requests and replies to one provider's HTTP API.
type Dialect interface {
	// Name is the registry key, e.g. "openai".
	Name() string
	// ChatPath is the completion endpoint relative to the base URL.
	ChatPath() string
	// BuildRequest returns the JSON-encodable request body.
	BuildRequest(req CompletionRequest) (any, error)
	// ParseResponse decodes a reply body. An unrecognized shape is an error.
	ParseResponse(body json.RawMessage) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect makes a dialect available to New. Registering the same
// name twice replaces the earlier dialect.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect looks up a registered dialect.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q", name)
	}
	return d, nil
}

// Dialects lists registered dialect names in sorted order.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
