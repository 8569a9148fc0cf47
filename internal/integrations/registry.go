// internal/integrations/registry.go
package integrations

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register rejestruje fabrykę pod nazwą klucza z configu ("integrations": {"<name>": {...}}).
// Podwójna rejestracja tej samej nazwy to błąd programisty.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("integrations: %q zarejestrowana dwukrotnie", name))
	}
	registry[name] = f
}

func Get(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

func All() map[string]Factory {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make(map[string]Factory, len(registry))
	for k, v := range registry {
		out[k] = v
	}
	return out
}

// Names: posortowane nazwy zarejestrowanych integracji.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
