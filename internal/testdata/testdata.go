// Package testdata holds YAML configuration fixtures used only by this
// module's own tests. Parsing a configuration file is out of scope for the
// library itself (see Configuration.Validate's doc comment); this package
// exists so config_test.go can exercise Validate against realistic,
// file-shaped input without the library ever growing a file-discovery path.
package testdata

import (
	"embed"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var files embed.FS

// Fixture mirrors the on-disk shape of a hand-authored configuration file,
// independent of mwlog.Configuration's Go field names, so tests decode YAML
// the way a caller's own config loader would and then translate the result
// into a mwlog.Configuration themselves.
type Fixture struct {
	ECUID          string            `yaml:"ecu_id"`
	AppID          string            `yaml:"app_id"`
	AppDescription string            `yaml:"app_description"`
	DefaultLevel   string            `yaml:"default_level"`
	ConsoleLevel   string            `yaml:"console_level"`
	ContextLevels  map[string]string `yaml:"context_levels"`
	Modes          []string          `yaml:"modes"`
	SlotCount      int               `yaml:"slot_count"`
	SlotByteSize   int               `yaml:"slot_byte_size"`
	LogFilePath    string            `yaml:"log_file_path"`
}

// Load decodes the embedded fixture named name (without extension).
func Load(name string) (Fixture, error) {
	var f Fixture
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}
