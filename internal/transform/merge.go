package transform

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func readDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse '%s': %w", path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	return &doc, nil
}

func writeDocument(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode '%s': %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, buf.Bytes(), mode)
}

// mergeNode overlays src onto dst. Mappings merge key by key, recursively;
// any other node kind in src replaces the node in dst.
func mergeNode(dst, src *yaml.Node) {
	if dst.Kind == yaml.DocumentNode && src.Kind == yaml.DocumentNode {
		if len(src.Content) == 0 {
			return
		}
		if len(dst.Content) == 0 {
			dst.Content = src.Content
			return
		}
		mergeNode(dst.Content[0], src.Content[0])
		return
	}
	if dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		*dst = *src
		return
	}
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		merged := false
		for j := 0; j+1 < len(dst.Content); j += 2 {
			if dst.Content[j].Value == key.Value {
				mergeNode(dst.Content[j+1], val)
				merged = true
				break
			}
		}
		if !merged {
			dst.Content = append(dst.Content, key, val)
		}
	}
}

// MergeFiles overlays the YAML file overlayPath onto basePath in place.
func MergeFiles(basePath, overlayPath string) error {
	base, err := readDocument(basePath)
	if err != nil {
		return err
	}
	overlay, err := readDocument(overlayPath)
	if err != nil {
		return err
	}
	mergeNode(base, overlay)
	return writeDocument(basePath, base)
}
