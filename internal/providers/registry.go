package providers

import "github.com/samber/lo"

var registry = map[string]Provider{
	Kleinanzeigen.ID: Kleinanzeigen,
	Immonet.ID:       Immonet,
	Wunderflats.ID:   Wunderflats,
}

// Get looks up an adapter descriptor by its stable id.
func Get(id string) (Provider, bool) {
	provider, ok := registry[id]
	return provider, ok
}

func All() []Provider {
	return lo.Values(registry)
}
