package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/gsharma/indiainfo/internal/models"
)

//go:embed cm_overrides.yaml
var cmOverridesYAML []byte

// CMOverrides maps lowercased state names to authoritative chief-minister
// records. Entries here replace whatever the cms table returned.
type CMOverrides map[string]models.ChiefMinister

// LoadCMOverrides reads the override table. With an empty path the embedded
// resource is used; a path lets operators swap the table without a rebuild.
func LoadCMOverrides(path string) (CMOverrides, error) {
	data := cmOverridesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read cm overrides file: %w", err)
		}
		data = b
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to parse cm overrides: %w", err)
	}

	var table CMOverrides
	if err := v.Unmarshal(&table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cm overrides: %w", err)
	}
	return table, nil
}
