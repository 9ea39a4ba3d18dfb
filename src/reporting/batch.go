package reporting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Classifier is one run to evaluate in a batch
type Classifier struct {
	Name        string `yaml:"name"`
	Predictions string `yaml:"predictions"`
}

// BatchConfig describes several classifier runs sharing a taxonomy, a ground truth and a reference
type BatchConfig struct {
	Taxonomy           string       `yaml:"taxonomy"`
	Truth              string       `yaml:"truth"`
	Reference          string       `yaml:"reference"`
	IgnoreUnclassified bool         `yaml:"ignore_unclassified"`
	OutsideReference   bool         `yaml:"outside_reference"`
	Header             bool         `yaml:"header"`
	Formulas           bool         `yaml:"formulas"`
	Verbose            bool         `yaml:"verbose"`
	Plot               string       `yaml:"plot"`
	Classifiers        []Classifier `yaml:"classifiers"`
}

// LoadBatchConfig reads a batch config, relative paths are taken from the directory of the config file
func LoadBatchConfig(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch config: %w", err)
	}
	config, err := ParseBatchConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	config.resolvePaths(filepath.Dir(path))
	return config, nil
}

// ParseBatchConfig decodes and validates a batch config, unknown fields are rejected
func ParseBatchConfig(data []byte) (*BatchConfig, error) {
	config := &BatchConfig{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(config.Classifiers) == 0 {
		return nil, fmt.Errorf("no classifiers listed")
	}
	names := make(map[string]struct{}, len(config.Classifiers))
	for i, classifier := range config.Classifiers {
		if classifier.Predictions == "" {
			return nil, fmt.Errorf("classifier %d has no predictions file", i+1)
		}
		if classifier.Name == "" {
			continue
		}
		if _, ok := names[classifier.Name]; ok {
			return nil, fmt.Errorf("classifier name %q is used more than once", classifier.Name)
		}
		names[classifier.Name] = struct{}{}
	}
	return config, nil
}

func (config *BatchConfig) resolvePaths(dir string) {
	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	config.Taxonomy = resolve(config.Taxonomy)
	config.Truth = resolve(config.Truth)
	config.Reference = resolve(config.Reference)
	config.Plot = resolve(config.Plot)
	for i := range config.Classifiers {
		config.Classifiers[i].Predictions = resolve(config.Classifiers[i].Predictions)
	}
}
