package submission

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the path-keyed state of one submission, backed by a YAML document.
//
// The document is held as a yaml.Node tree rather than decoded maps so that a
// load/save cycle keeps key order, unrelated keys and comments intact.
type Config struct {
	path string
	doc  *yaml.Node
}

// New returns an empty configuration that will be saved to path.
func New(path string) *Config {
	return &Config{path: path, doc: emptyDocument()}
}

// Load reads the configuration stored at path. A missing file is not an
// error: the submission simply has no state yet.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(path), nil
		}
		return nil, fmt.Errorf("reading submission config: %w", err)
	}
	c, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.path = path
	return c, nil
}

func parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{doc: emptyDocument()}, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("expected a single YAML document")
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		doc.Content[0] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	} else if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %s", kindName(root.Kind))
	}
	return &Config{doc: &doc}, nil
}

func emptyDocument() *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its file atomically.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("submission config has no file path")
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return writeAtomic(c.path, data)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.doc); err != nil {
		return nil, fmt.Errorf("marshal submission config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal submission config: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Config) root() *yaml.Node {
	return c.doc.Content[0]
}

// lookup walks keys from the root. It returns nil when any segment is missing
// or traverses something other than a mapping.
func (c *Config) lookup(keys []string) *yaml.Node {
	node := c.root()
	for _, key := range keys {
		node = resolve(node)
		if node.Kind != yaml.MappingNode {
			return nil
		}
		_, value := findKey(node, key)
		if value == nil {
			return nil
		}
		node = value
	}
	return resolve(node)
}

// Has reports whether a value exists at keys.
func (c *Config) Has(keys ...string) bool {
	return c.lookup(keys) != nil
}

// Query returns the value stored at keys decoded into plain Go values
// (map[string]interface{}, []interface{}, scalars). The boolean is false when
// the path does not exist.
func (c *Config) Query(keys ...string) (any, bool) {
	node := c.lookup(keys)
	if node == nil {
		return nil, false
	}
	var out any
	if err := node.Decode(&out); err != nil {
		return nil, false
	}
	return out, true
}

// Decode decodes the value at keys into out. It returns false without touching
// out when the path does not exist.
func (c *Config) Decode(out any, keys ...string) (bool, error) {
	node := c.lookup(keys)
	if node == nil {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return true, fmt.Errorf("decode %v: %w", keys, err)
	}
	return true, nil
}

// Strings returns the string list at keys, or nil if it is missing or not a list.
func (c *Config) Strings(keys ...string) []string {
	var out []string
	if _, err := c.Decode(&out, keys...); err != nil {
		return nil
	}
	return out
}

// String returns the scalar at keys, or "" if it is missing.
func (c *Config) String(keys ...string) string {
	node := c.lookup(keys)
	if node == nil || node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return ""
	}
	return node.Value
}

// Keys returns the child keys of the mapping at keys in document order.
func (c *Config) Keys(keys ...string) []string {
	node := c.lookup(keys)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, node.Content[i].Value)
	}
	return out
}

// Set stores value at keys. Missing intermediate mappings are created; an
// existing key keeps its position and its siblings are left untouched.
func (c *Config) Set(value any, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("set: empty key path")
	}
	var encoded yaml.Node
	if err := encoded.Encode(value); err != nil {
		return fmt.Errorf("encode value for %v: %w", keys, err)
	}
	leaf := &encoded
	if leaf.Kind == yaml.DocumentNode && len(leaf.Content) == 1 {
		leaf = leaf.Content[0]
	}

	node := c.root()
	for i, key := range keys {
		last := i == len(keys)-1
		_, valueNode := findKey(node, key)
		if last {
			if valueNode != nil {
				*valueNode = *leaf
			} else {
				node.Content = append(node.Content, scalarKey(key), leaf)
			}
			return nil
		}
		if valueNode == nil {
			valueNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalarKey(key), valueNode)
		} else if resolve(valueNode).Kind != yaml.MappingNode {
			// A scalar or null in the middle of the path is replaced by a mapping.
			*valueNode = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		node = resolve(valueNode)
	}
	return nil
}

// Delete removes the key at keys. It reports whether anything was removed.
func (c *Config) Delete(keys ...string) bool {
	if len(keys) == 0 {
		return false
	}
	parent := c.lookup(keys[:len(keys)-1])
	if parent == nil || parent.Kind != yaml.MappingNode {
		return false
	}
	last := keys[len(keys)-1]
	for i := 0; i+1 < len(parent.Content); i += 2 {
		if parent.Content[i].Value == last {
			parent.Content = append(parent.Content[:i], parent.Content[i+2:]...)
			return true
		}
	}
	return false
}

func findKey(mapping *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if mapping.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func scalarKey(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
