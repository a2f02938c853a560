package matching

import (
	"fmt"
	"path/filepath"
	"plugin"
	"strings"
)

// Resolve returns the strategy selected by configuration. An empty name
// means the built-in matcher; anything else is loaded from the operator
// directory. Resolution happens once per import job, never per row.
func Resolve(name, dir string) (Strategy, error) {
	if strings.TrimSpace(name) == "" {
		return NewDefaultStrategy(), nil
	}
	return Load(dir, name)
}

// Load opens the named shared object under dir and instantiates the strategy
// it exports. The plugin must export a no-argument constructor:
//
//	func New() matching.Strategy
//
// Every failure mode here is a *LoadError so callers can tell a broken
// deployment apart from a row that simply does not match.
func Load(dir, name string) (Strategy, error) {
	file := name
	if !strings.HasSuffix(file, ".so") {
		file += ".so"
	}

	p, err := plugin.Open(filepath.Join(dir, file))
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	sym, err := p.Lookup("New")
	if err != nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("missing New symbol: %w", err)}
	}

	ctor, ok := sym.(func() Strategy)
	if !ok {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("New has wrong type %T, want func() matching.Strategy", sym)}
	}

	strategy := ctor()
	if strategy == nil {
		return nil, &LoadError{Name: name, Err: fmt.Errorf("New returned nil")}
	}
	return strategy, nil
}
