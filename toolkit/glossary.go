package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/martinemde/parley/agentchat"
	"github.com/martinemde/parley/enginellm"
)

// Glossary is a case-insensitive term store the glossary tool reads
// from. Entries may be seeded at construction and extended at runtime.
type Glossary struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewGlossary creates a Glossary seeded with the given entries.
func NewGlossary(seed map[string]string) *Glossary {
	g := &Glossary{entries: make(map[string]string, len(seed))}
	for term, definition := range seed {
		g.entries[strings.ToLower(term)] = definition
	}
	return g
}

// Define adds or replaces a term.
func (g *Glossary) Define(term, definition string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[strings.ToLower(term)] = definition
}

// Lookup returns the definition for a term.
func (g *Glossary) Lookup(term string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	definition, ok := g.entries[strings.ToLower(term)]
	return definition, ok
}

// Terms returns all known terms, sorted.
func (g *Glossary) Terms() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	terms := make([]string, 0, len(g.entries))
	for term := range g.entries {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// search returns terms containing the query as a substring.
func (g *Glossary) search(query string) []string {
	query = strings.ToLower(query)
	var matches []string
	for _, term := range g.Terms() {
		if strings.Contains(term, query) {
			matches = append(matches, term)
		}
	}
	return matches
}

func registerGlossary(reg *agentchat.ToolRegistry, glossary *Glossary) {
	reg.Register(agentchat.RegisteredTool{
		Definition: enginellm.ToolDefinition{
			Name:        "glossary",
			Description: "Look up the definition of a term. Unknown terms return a list of close matches.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"term": map[string]interface{}{
						"type":        "string",
						"description": "The term to look up.",
					},
				},
				"required": []string{"term"},
			},
		},
		Executor: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			args, err := agentchat.ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}
			term, ok := agentchat.GetStringArg(args, "term")
			if !ok || strings.TrimSpace(term) == "" {
				return "", fmt.Errorf("term is required")
			}

			if definition, ok := glossary.Lookup(term); ok {
				return fmt.Sprintf("%s: %s", term, definition), nil
			}
			if matches := glossary.search(term); len(matches) > 0 {
				return fmt.Sprintf("No exact entry for %q. Close matches: %s",
					term, strings.Join(matches, ", ")), nil
			}
			return "", fmt.Errorf("no glossary entry for %q", term)
		},
	})
}
