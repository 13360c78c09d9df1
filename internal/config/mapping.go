package config

import (
	"fmt"
	"os"

	"github.com/BartekS5/opinions-etl/pkg/models"
)

// LoadMapping returns the built-in field-mapping profiles, overridden by the
// profiles of the JSON file at filePath when one is given.
func LoadMapping(filePath string) (map[models.Profile]models.FieldMapping, error) {
	profiles := models.DefaultProfiles()
	if filePath == "" {
		return profiles, nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file '%s': %w", filePath, err)
	}

	mapping, err := models.LoadMapping(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file '%s': %w", filePath, err)
	}

	for profile, fields := range mapping.Profiles {
		profiles[profile] = fields
	}
	return profiles, nil
}
