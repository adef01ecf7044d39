package llmpipeline

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/models/anthropic.yaml
var modelCatalogYAML []byte

// Model is one catalog entry: the wire identifier sent to the upstream
// and the display name shown by the host.
type Model struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type modelCatalog struct {
	Models []Model `yaml:"models"`
}

var (
	catalogOnce sync.Once
	catalog     []Model
)

func loadCatalog() {
	var parsed modelCatalog
	if err := yaml.Unmarshal(modelCatalogYAML, &parsed); err != nil {
		// The catalog ships inside the binary; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("llmpipeline: embedded model catalog is invalid: %v", err))
	}
	catalog = parsed.Models
}

// Models returns the static model catalog. The returned slice is a copy
// and safe to mutate.
func Models() []Model {
	catalogOnce.Do(loadCatalog)
	out := make([]Model, len(catalog))
	copy(out, catalog)
	return out
}

// SupportedModel returns true if the identifier appears in the catalog.
func SupportedModel(id string) bool {
	catalogOnce.Do(loadCatalog)
	for _, m := range catalog {
		if m.ID == id {
			return true
		}
	}
	return false
}
