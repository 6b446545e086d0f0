// Package classifier maps a transcript onto the emergency routing contract.
// Every provider strategy returns the same types.ClassificationResult shape,
// so the pipeline never needs to know which one answered.
package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"voice-alerts-go/internal/types"
)

type Classifier interface {
	Classify(ctx context.Context, transcript, language string) (types.ClassificationResult, error)
}

// Registry selects a strategy by its runtime key.
type Registry struct {
	defaultName string
	byName      map[string]Classifier
}

func NewRegistry(defaultName string) *Registry {
	return &Registry{
		defaultName: strings.ToLower(defaultName),
		byName:      map[string]Classifier{},
	}
}

func (r *Registry) Register(name string, c Classifier) {
	r.byName[strings.ToLower(name)] = c
}

// Resolve returns the strategy for name, or the default when name is blank.
func (r *Registry) Resolve(name string) (string, Classifier, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = r.defaultName
	}
	c, ok := r.byName[key]
	if !ok {
		return "", nil, &types.ValidationError{
			Field: "provider",
			Msg:   fmt.Sprintf("unknown provider %q (available: %s)", name, strings.Join(r.Names(), ", ")),
		}
	}
	return key, c, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
