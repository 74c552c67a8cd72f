package refinery

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in refineries
const (
	// Text cleans names, company names and addresses
	Text = "text"
	// Identifier cleans emails, phones and tax ids without touching inner characters
	Identifier = "identifier"
)

// Registry manages the available refineries
type Registry struct {
	mu         sync.RWMutex
	refineries map[string]*Refinery
}

var globalRegistry = &Registry{
	refineries: make(map[string]*Refinery),
}

// Register adds or replaces a refinery under its name
func Register(r *Refinery) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	globalRegistry.refineries[r.Name()] = r
}

// Get retrieves a refinery by name
func Get(name string) (*Refinery, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	r, exists := globalRegistry.refineries[name]
	if !exists {
		return nil, fmt.Errorf("refinery '%s' not found", name)
	}
	return r, nil
}

// MustGet is Get for the built-in refineries
func MustGet(name string) *Refinery {
	r, err := Get(name)
	if err != nil {
		panic(err)
	}
	return r
}

// ListAvailable returns the registered refinery names, sorted
func ListAvailable() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	names := make([]string, 0, len(globalRegistry.refineries))
	for name := range globalRegistry.refineries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(New(Text).
		Then("remove_invisible", RemoveInvisible).
		Then("normalize_nfc", NormalizeNFC).
		Then("remove_multiple_whitespace", RemoveMultipleWhitespace))

	Register(New(Identifier).
		Then("remove_invisible", RemoveInvisible).
		Then("normalize_nfc", NormalizeNFC).
		Then("trim_space", TrimSpace))
}
