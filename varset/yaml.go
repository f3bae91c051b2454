// ABOUTME: YAML export of variable sets using gopkg.in/yaml.v3 nodes.
// ABOUTME: Builds the node tree by hand so object key order and number text survive.
package varset

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlExport is the document shape written by ExportYAML.
type yamlExport struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Variables *Object `yaml:"variables"`
}

// ExportYAML renders a variable set as a YAML document.
func ExportYAML(set VariableSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	doc := yamlExport{ID: set.ID, Name: set.Name, Variables: set.Variables}
	if doc.Variables == nil {
		doc.Variables = NewObject()
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.yamlNode()
}

// MarshalYAML implements yaml.Marshaler with keys in insertion order.
func (o *Object) MarshalYAML() (interface{}, error) {
	return o.yamlNode()
}

func (v Value) yamlNode() (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		val := "false"
		if v.b {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}, nil
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(string(v.n), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v.n)}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}, nil
	case KindArray:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.arr {
			n, err := item.yamlNode()
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case KindObject:
		return v.obj.yamlNode()
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

func (o *Object) yamlNode() (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	o.Range(func(k string, val Value) bool {
		var n *yaml.Node
		n, err = val.yamlNode()
		if err != nil {
			return false
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			n,
		)
		return true
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
