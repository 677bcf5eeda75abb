package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/guilherme-santos/lessonsync/internal"
	"github.com/guilherme-santos/lessonsync/internal/config"
)

// Factory builds the provider of a platform out of the loaded configuration.
type Factory func(context.Context, *config.Config) (internal.Provider, error)

type Mux struct {
	mu        sync.Mutex
	factories map[string]Factory
}

func NewMux() *Mux {
	return &Mux{
		factories: make(map[string]Factory),
	}
}

func (m *Mux) Get(platform string) (Factory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	factory, ok := m.factories[platform]
	if !ok {
		return nil, fmt.Errorf("calendar %q is not implemented", platform)
	}
	return factory, nil
}

func (m *Mux) Register(platform string, factory Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.factories[platform] = factory
}

// Provider builds the provider selected by cfg.Calendar.Provider.
func (m *Mux) Provider(ctx context.Context, cfg *config.Config) (internal.Provider, error) {
	factory, err := m.Get(cfg.Calendar.Provider)
	if err != nil {
		return nil, err
	}
	return factory(ctx, cfg)
}

func (m *Mux) Platforms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	platforms := make([]string, 0, len(m.factories))
	for p := range m.factories {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}
