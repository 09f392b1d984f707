package slash

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scanner enumerates the command factories registered under a namespace.
type Scanner interface {
	Scan(namespace string) ([]Factory, error)
}

// Catalog is the in-process Scanner. Namespaces are dotted paths; scanning
// "interbot.commands" also yields "interbot.commands.admin".
type Catalog struct {
	mu    sync.RWMutex
	byNS  map[string][]Factory
	order []string
}

// NewCatalog creates a catalog seeded with regs.
func NewCatalog(regs ...Registration) *Catalog {
	c := &Catalog{byNS: make(map[string][]Factory)}
	for _, r := range regs {
		c.Add(r.Namespace, r.Factory)
	}
	return c
}

// Add registers a factory under namespace. Nil factories are ignored.
func (c *Catalog) Add(namespace string, f Factory) {
	if f == nil {
		return
	}
	namespace = strings.TrimSpace(namespace)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byNS[namespace]; !ok {
		c.order = append(c.order, namespace)
	}
	c.byNS[namespace] = append(c.byNS[namespace], f)
}

// Scan returns the factories under namespace and its children, grouped by
// namespace in lexical order and in registration order within one.
func (c *Catalog) Scan(namespace string) ([]Factory, error) {
	namespace = strings.TrimSpace(namespace)

	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]string, 0)
	for _, ns := range c.order {
		if ns == namespace || strings.HasPrefix(ns, namespace+".") {
			matched = append(matched, ns)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	sort.Strings(matched)

	out := make([]Factory, 0)
	for _, ns := range matched {
		out = append(out, c.byNS[ns]...)
	}
	return out, nil
}

// Namespaces lists the registered namespaces.
func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)
	return out
}
