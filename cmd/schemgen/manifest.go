package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/astei/schemgen/volume"
)

// Manifest describes a volume built from character layers and existing
// schematics.
//
//	name: tower
//	legend:
//	  "#": stone
//	  "L": minecraft:oak_log[axis=y]
//	layers:
//	  - y: 0
//	    repeat: 3
//	    rows: ["##", "#L"]
//	includes:
//	  - path: roof.schematic
//	    offset: [0, 3, 0]
//
// Characters missing from the legend are air. Include paths are relative to
// the manifest.
type Manifest struct {
	Name     string            `yaml:"name"`
	Legend   map[string]string `yaml:"legend"`
	Layers   []LayerSpec       `yaml:"layers"`
	Includes []Include         `yaml:"includes"`

	dir    string
	blocks volume.Legend
}

// LayerSpec is one layer of rows, indexed [z][x]. Repeat stacks copies of it
// upwards from Y.
type LayerSpec struct {
	Y      int      `yaml:"y"`
	Repeat int      `yaml:"repeat"`
	Rows   []string `yaml:"rows"`
}

type Include struct {
	Path   string `yaml:"path"`
	Offset [3]int `yaml:"offset"`
}

func (inc Include) pos() volume.Pos {
	return volume.Pos{X: inc.Offset[0], Y: inc.Offset[1], Z: inc.Offset[2]}
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest. Unknown keys are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	m.blocks = make(volume.Legend, len(m.Legend))
	for key, state := range m.Legend {
		r, n := utf8.DecodeRuneInString(key)
		if n == 0 || n != len(key) {
			return nil, fmt.Errorf("legend key %q must be a single character", key)
		}
		b, err := volume.ParseBlock(state)
		if err != nil {
			return nil, fmt.Errorf("legend %q: %w", key, err)
		}
		m.blocks[int(r)] = b
	}
	for i, layer := range m.Layers {
		if layer.Repeat < 0 {
			return nil, fmt.Errorf("layer %d: negative repeat %d", i, layer.Repeat)
		}
	}
	for i, inc := range m.Includes {
		if inc.Path == "" {
			return nil, fmt.Errorf("include %d: missing path", i)
		}
	}
	return &m, nil
}

// labels turns the rows of a layer into a label grid keyed by character.
func (l LayerSpec) labels() *volume.Labels {
	rows := make([][]int, len(l.Rows))
	for z, row := range l.Rows {
		for _, r := range row {
			rows[z] = append(rows[z], int(r))
		}
	}
	return volume.LabelsFromRows(rows)
}

// includePaths resolves include paths against the manifest directory.
func (m *Manifest) includePaths() []string {
	paths := make([]string, len(m.Includes))
	for i, inc := range m.Includes {
		paths[i] = inc.Path
		if !filepath.IsAbs(inc.Path) && m.dir != "" {
			paths[i] = filepath.Join(m.dir, inc.Path)
		}
	}
	return paths
}

// Build lays down every layer in order, then merges the includes in order.
func (m *Manifest) Build(opts ...volume.Option) (*volume.Volume, error) {
	v := volume.New(opts...)
	for i, layer := range m.Layers {
		count := max(layer.Repeat, 1)
		stack := make([]volume.Layer, count)
		labels := layer.labels()
		for j := range stack {
			stack[j] = labels
		}
		if err := v.AddStack(stack, layer.Y, m.blocks.Block); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	included, err := loadAll(m.includePaths(), v.Limits())
	if err != nil {
		return nil, err
	}
	for i, other := range included {
		if err := v.Merge(other, m.Includes[i].pos()); err != nil {
			return nil, fmt.Errorf("include %s: %w", m.Includes[i].Path, err)
		}
	}
	return v, nil
}
