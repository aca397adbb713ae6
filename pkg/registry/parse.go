package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// rawDefinition is the YAML shape of one declaration.
type rawDefinition struct {
	Default     any      `yaml:"default"`
	Kind        string   `yaml:"kind"`
	Type        string   `yaml:"type"`
	Label       string   `yaml:"label"`
	Description string   `yaml:"description"`
	Unit        string   `yaml:"unit"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
	Step        *float64 `yaml:"step"`
	Options     []string `yaml:"options"`
	Placeholder string   `yaml:"placeholder"`
	Schema      string   `yaml:"schema"`
}

// Parse builds a registry from a YAML declaration document:
//
//	variables:
//	  sineAngle:
//	    default: 45
//	    kind: number
//	    unit: "°"
//	    min: 0
//	    max: 360
//	    step: 5
//
// Declaration order follows the document. A duplicate key is reported as
// E101 with its line rather than silently overwriting the first declaration.
func Parse(data []byte) (*Registry, error) {
	return parse("", data)
}

// LoadFile reads and parses a declaration document from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E104").Wrapf("read %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(source string, data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.New("E104").Wrapf("yaml parse: %w", err)
	}

	vars, err := variablesNode(&doc)
	if err != nil {
		return nil, located(errors.New("E104").Wrap(err), source, doc.Line)
	}

	entries := make([]Entry, 0, len(vars.Content)/2)
	for i := 0; i+1 < len(vars.Content); i += 2 {
		key, body := vars.Content[i], vars.Content[i+1]

		def, err := decodeDefinition(body)
		if err != nil {
			return nil, located(errors.New("E103").WithVariable(key.Value).Wrap(err), source, key.Line)
		}
		entries = append(entries, Entry{Name: key.Value, Definition: def, Line: key.Line})
	}

	return build(source, entries)
}

// variablesNode locates the mapping under the top-level "variables" key.
// An empty document yields an empty mapping.
func variablesNode(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return &yaml.Node{Kind: yaml.MappingNode}, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping with a variables key")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "variables" {
			continue
		}
		vars := root.Content[i+1]
		switch vars.Kind {
		case yaml.MappingNode:
			return vars, nil
		case yaml.ScalarNode:
			if vars.Tag == "!!null" {
				return &yaml.Node{Kind: yaml.MappingNode}, nil
			}
		}
		return nil, fmt.Errorf("line %d: variables must be a mapping of name to definition", vars.Line)
	}
	return nil, fmt.Errorf("missing top-level variables key")
}

func decodeDefinition(node *yaml.Node) (Definition, error) {
	if node.Kind != yaml.MappingNode {
		return Definition{}, fmt.Errorf("definition must be a mapping")
	}

	var raw rawDefinition
	if err := node.Decode(&raw); err != nil {
		return Definition{}, err
	}
	if raw.Default == nil {
		return Definition{}, fmt.Errorf("default is required")
	}

	def, err := value.FromAny(raw.Default)
	if err != nil {
		return Definition{}, fmt.Errorf("default: %w", err)
	}

	kindName := raw.Kind
	if kindName == "" {
		kindName = raw.Type
	}
	kind := InferKind(def)
	if kindName != "" {
		if kind, err = ParseKind(kindName); err != nil {
			return Definition{}, err
		}
	}

	return Definition{
		Default:     def,
		Label:       raw.Label,
		Description: raw.Description,
		Kind:        kind,
		Unit:        raw.Unit,
		Min:         raw.Min,
		Max:         raw.Max,
		Step:        raw.Step,
		Options:     raw.Options,
		Placeholder: raw.Placeholder,
		Schema:      raw.Schema,
	}, nil
}
