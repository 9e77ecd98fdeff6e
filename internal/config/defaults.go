package config

import "gopkg.in/yaml.v3"

// fileDefaults mirrors the structure of the embedded defaults.yaml.
type fileDefaults struct {
	Engine   EngineConfig   `yaml:"engine"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// loadDefaults parses the embedded defaults file.
func loadDefaults() fileDefaults {
	var d fileDefaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// The file is embedded at compile time; a parse failure is a build
		// defect, not a runtime condition.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return d
}
