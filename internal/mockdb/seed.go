package mockdb

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// seedTables is parsed once; Seed hands out deep copies.
var seedTables = mustParseSeed(seedYAML)

// Seed returns a fresh copy of the sample tables. Comments are not part of the
// seed; they live in local storage.
func Seed() map[string][]Record {
	out := make(map[string][]Record, len(seedTables))
	for name, rows := range seedTables {
		out[name] = cloneRecords(rows)
	}
	return out
}

// ParseSeed decodes a YAML document mapping table names to lists of rows.
func ParseSeed(data []byte) (map[string][]Record, error) {
	var tables map[string][]Record
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	for name, rows := range tables {
		if rows == nil {
			tables[name] = []Record{}
		}
	}
	return tables, nil
}

func mustParseSeed(data []byte) map[string][]Record {
	tables, err := ParseSeed(data)
	if err != nil {
		panic(err)
	}
	return tables
}
