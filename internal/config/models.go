package config

import (
	"os"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/charmbracelet/catwalk/pkg/embedded"
)

// ModelChoice is a model offered by the configured provider.
type ModelChoice struct {
	ID   string
	Name string
}

// ConfiguredModels lists the models of the configured provider, falling back
// to catwalk's embedded catalog when the config names none.
func ConfiguredModels(cfg Config) []ModelChoice {
	models := cfg.Provider.Models
	if len(models) == 0 {
		if p, ok := providerByID(string(cfg.Provider.ID)); ok {
			models = p.Models
		}
	}

	choices := make([]ModelChoice, 0, len(models))
	for _, m := range models {
		choices = append(choices, ModelChoice{ID: m.ID, Name: m.Name})
	}
	return choices
}

// providerByID looks up a provider in catwalk's embedded catalog.
func providerByID(id string) (catwalk.Provider, bool) {
	for _, p := range embedded.GetAll() {
		if string(p.ID) == id {
			p.APIEndpoint = os.ExpandEnv(p.APIEndpoint)
			return p, true
		}
	}
	return catwalk.Provider{}, false
}
