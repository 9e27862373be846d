// Package catalog embeds the base opportunity catalog. These entries are
// immutable within a session: the server seeds them into Postgres, and the
// sync adapter falls back to them when no backend is reachable.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/groupscholar/opportunity-radar/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	loadOnce sync.Once
	loaded   []models.Opportunity
	loadErr  error
)

type catalogFile struct {
	Opportunities []models.Opportunity `yaml:"opportunities"`
}

// Base returns a fresh copy of the base catalog with Custom forced false.
func Base() ([]models.Opportunity, error) {
	loadOnce.Do(func() {
		var file catalogFile
		if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
			loadErr = fmt.Errorf("failed to parse embedded catalog: %w", err)
			return
		}
		for i := range file.Opportunities {
			file.Opportunities[i].Custom = false
			if file.Opportunities[i].Fit < 1 || file.Opportunities[i].Fit > 5 {
				file.Opportunities[i].Fit = 3
			}
		}
		loaded = file.Opportunities
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]models.Opportunity, len(loaded))
	copy(out, loaded)
	return out, nil
}
