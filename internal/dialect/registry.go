package dialect

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Default is the dialect used when none is named.
const Default = "sqlite"

var (
	registryMu sync.RWMutex
	registry   = map[string]*Dialect{}
)

func init() {
	for _, d := range []*Dialect{SQLite(), Postgres(), MySQL(), SQLServer(), DuckDB(), Cosmos(), DynamoDB()} {
		if err := Register(d); err != nil {
			panic(err)
		}
	}
}

// Register adds d under its lower-cased name.
func Register(d *Dialect) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("dialect: missing name")
	}
	if d.Kind != KindKeyValue && (d.QuoteIdent == nil || d.Placeholder == nil || d.Paginate == nil) {
		return fmt.Errorf("dialect %s: QuoteIdent, Placeholder and Paginate are required", d.Name)
	}
	key := strings.ToLower(d.Name)

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		return fmt.Errorf("dialect %s: already registered", d.Name)
	}
	registry[key] = d
	return nil
}

// Lookup finds a registered dialect by name, ignoring case.
func Lookup(name string) (*Dialect, error) {
	if name == "" {
		name = Default
	}
	registryMu.RLock()
	d, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists registered dialects in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
