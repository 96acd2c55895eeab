package bureau

import (
	"fmt"

	"github.com/pendencias/backend/internal/domain/pendency"
)

// NewProvider creates the adapter for code
func NewProvider(code pendency.ProviderCode, cfg *ClientConfig, opts ...Option) (pendency.Provider, error) {
	switch code {
	case pendency.ProviderSerasa:
		return NewSerasaAdapter(cfg, opts...)
	case pendency.ProviderSPC:
		return NewSPCAdapter(cfg, opts...)
	case pendency.ProviderBoaVista:
		return NewBoaVistaAdapter(cfg, opts...)
	case pendency.ProviderQuod:
		return NewQuodAdapter(cfg, opts...)
	case pendency.ProviderPGFN:
		return NewPGFNAdapter(cfg, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", pendency.ErrUnknownProvider, code)
	}
}

// NewProviders creates one adapter per settings entry, preserving order
func NewProviders(settings []ProviderSettings, opts ...Option) ([]pendency.Provider, error) {
	providers := make([]pendency.Provider, 0, len(settings))
	for _, s := range settings {
		p, err := NewProvider(s.Code, s.Client, opts...)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
