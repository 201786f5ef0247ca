// Package commands collects the command sources its sub-packages register
// from init. Import a sub-package for its side effect to make its commands
// available through All.
package commands

import (
	"sort"
	"sync"

	"server-tempo/internal/command"
)

var (
	mu      sync.Mutex
	sources []command.Source
)

// Register adds sources to the set returned by All.
func Register(src ...command.Source) {
	mu.Lock()
	defer mu.Unlock()
	sources = append(sources, src...)
}

// All returns every registered source ordered by origin.
func All() []command.Source {
	mu.Lock()
	defer mu.Unlock()
	out := make([]command.Source, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Origin < out[j].Origin })
	return out
}
