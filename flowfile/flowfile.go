package flowfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/casualjim/loom/flow"
	"github.com/casualjim/loom/types"
)

// Document is the top level shape of a flowfile.
type Document struct {
	Version int            `yaml:"version"`
	ID      string         `yaml:"id"`
	Vars    map[string]any `yaml:"vars"`
	Nodes   []nodeSpec     `yaml:"nodes"`
}

// Flow is a loaded flowfile: the assembled template tree and the variables
// the document seeds the conversation with.
type Flow struct {
	Root flow.Template
	Vars types.ContextVars
}

// Load reads and builds the flowfile at path.
func Load(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flowfile: %w", err)
	}
	fl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("flowfile %s: %w", path, err)
	}
	return fl, nil
}

// Parse builds the template tree a YAML document describes.
func Parse(data []byte) (*Flow, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse flowfile: %v", flow.ErrConfig, err)
	}
	return doc.Build()
}

// Build assembles the template tree. The declared nodes become the children
// of a root sequence named by the document id, "main" when absent.
func (d Document) Build() (*Flow, error) {
	if d.Version != 0 && d.Version != 1 {
		return nil, fmt.Errorf("%w: unsupported flowfile version %d", flow.ErrConfig, d.Version)
	}
	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("%w: flowfile declares no nodes", flow.ErrConfig)
	}

	rootID := d.ID
	if rootID == "" {
		rootID = "main"
	}

	b := &builder{seen: map[string]struct{}{rootID: {}}}
	children := make([]flow.Template, 0, len(d.Nodes))
	for _, spec := range d.Nodes {
		node, err := b.build(spec)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}

	var vars types.ContextVars
	if d.Vars != nil {
		vars = types.ContextVars(d.Vars)
	}
	return &Flow{Root: flow.NewSequence(rootID, children...), Vars: vars}, nil
}
