package rpc

import "strings"

type ValidationServiceConfig struct {
	AvailableProviders []string
}

// ValidationService rejects requests for providers the bridge does not feed.
type ValidationService struct {
	providers map[string]struct{}
}

func NewValidationService(config *ValidationServiceConfig) *ValidationService {
	s := &ValidationService{providers: make(map[string]struct{})}
	if config == nil {
		return s
	}
	for _, p := range config.AvailableProviders {
		s.providers[NormalizeProvider(p)] = struct{}{}
	}
	return s
}

func (s *ValidationService) IsSupportedProvider(provider string) bool {
	provider = NormalizeProvider(provider)
	if provider == "" {
		return false
	}
	_, ok := s.providers[provider]
	return ok
}

func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
