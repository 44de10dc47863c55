package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// Reserved top-level keys of the YAML layout.
const (
	yamlGlobal   = "global"
	yamlTitles   = "directory_titles"
	yamlSkip     = "skip"
	yamlExternal = "external"
	yamlSections = "sections"
	yamlNamesKey = "names"
)

func decodeYAML(data []byte) (*rawDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse YAML configuration").Fatal().Build()
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ferrors.ConfigError("configuration is empty").Build()
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, ferrors.ConfigError("configuration must be a mapping of named sections").Build()
	}

	doc := &rawDocument{bodies: make(map[string]map[string]string)}
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i].Value, top.Content[i+1]
		var err error
		switch key {
		case yamlGlobal:
			doc.global, err = scalarMapping(value, key)
		case yamlTitles:
			doc.titles, err = scalarMapping(value, key)
		case yamlSkip:
			doc.skip, err = stringList(value, key)
		case yamlExternal:
			doc.external, err = stringList(value, key)
		case yamlSections:
			doc.names, err = sectionNames(value)
		default:
			if _, dup := doc.bodies[key]; dup {
				err = fmt.Errorf("section body %q defined more than once", key)
				break
			}
			doc.bodies[key], err = scalarMapping(value, key)
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf("invalid section %q", key)).
				Fatal().
				WithContext("section", key).
				WithContext("line", top.Content[i].Line).
				Build()
		}
	}
	return doc, nil
}

// scalarMapping decodes a mapping whose values are scalars. A key with no
// value (`dirname:`) is present with an empty string.
func scalarMapping(node *yaml.Node, where string) (map[string]string, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return map[string]string{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s must be a mapping (line %d)", where, node.Line)
	}
	out := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s.%s must be a scalar (line %d)", where, k.Value, v.Line)
		}
		if v.Tag == "!!null" {
			out[k.Value] = ""
			continue
		}
		out[k.Value] = v.Value
	}
	return out, nil
}

func stringList(node *yaml.Node, where string) ([]string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return splitList([]string{node.Value}), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%s entries must be scalars (line %d)", where, item.Line)
			}
			items = append(items, item.Value)
		}
		return splitList(items), nil
	default:
		return nil, fmt.Errorf("%s must be a list (line %d)", where, node.Line)
	}
}

func sectionNames(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.MappingNode {
		return stringList(node, yamlSections)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if strings.TrimSpace(node.Content[i].Value) == yamlNamesKey {
			return stringList(node.Content[i+1], yamlSections+"."+yamlNamesKey)
		}
	}
	return nil, fmt.Errorf("%s has no %q key", yamlSections, yamlNamesKey)
}
