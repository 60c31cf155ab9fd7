package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feature is one declared model input.
type Feature struct {
	Name string
	Type string // int, float, str
	Role string // always "feature" for model inputs
}

// Schema is the ordered feature list derived from a descriptor.
type Schema []Feature

// Descriptor is the side-car file describing a model: where its artifact
// lives, which backend deserializes it, an optional preprocessor artifact
// and the ordered feature definitions.
//
// e.g.
//
//	path: attrition-v1.gob
//	type: pipeline
//	preprocessor: attrition-prep.gob
//	features:
//	  department: str
//	  age: int
type Descriptor struct {
	Path         string
	Type         string
	Preprocessor string
	Features     Schema
}

func readDescriptor(path string) (*Descriptor, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// features must keep declaration order: the packed feature string is
	// positional. A plain map would shuffle it, so the node is walked.
	var doc struct {
		Path         string    `yaml:"path"`
		Type         string    `yaml:"type"`
		Preprocessor string    `yaml:"preprocessor"`
		Features     yaml.Node `yaml:"features"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
	}
	if doc.Path == "" {
		return nil, fmt.Errorf("descriptor %s is missing the artifact path", path)
	}
	if doc.Type == "" {
		return nil, fmt.Errorf("descriptor %s is missing the backend type", path)
	}

	d := &Descriptor{Path: doc.Path, Type: doc.Type, Preprocessor: doc.Preprocessor}

	if doc.Features.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("descriptor %s: features must be a mapping of name to type", path)
	}
	for i := 0; i+1 < len(doc.Features.Content); i += 2 {
		name := doc.Features.Content[i].Value
		typ := doc.Features.Content[i+1].Value
		switch typ {
		case "int", "float", "str":
		default:
			return nil, fmt.Errorf("descriptor %s: feature %q has unknown type %q", path, name, typ)
		}
		d.Features = append(d.Features, Feature{Name: name, Type: typ, Role: "feature"})
	}
	if len(d.Features) == 0 {
		return nil, fmt.Errorf("descriptor %s declares no features", path)
	}
	return d, nil
}
