// Copyright 2026 The slskSticky Authors
// SPDX-License-Identifier: Apache-2.0

package slskd

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// patchListenPort sets soulseek.listen_port in the YAML options
// document, treating everything else as opaque. The document is
// manipulated as a yaml.Node tree rather than a map so the round-trip
// preserves key order and comments. A document whose root is not a
// mapping is replaced by an empty mapping; a missing soulseek section
// is created.
//
// Returns the re-serialized document, the previously configured port
// (0 when unset), and changed=false when the document already carries
// the desired port — in that case the returned document is the input,
// untouched.
func patchListenPort(document string, port int) (updated string, currentPort int, changed bool, err error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(document), &root); err != nil {
		return "", 0, false, fmt.Errorf("parsing slskd options document: %w", err)
	}

	mapping := documentMapping(&root)
	soulseek := ensureChildMapping(mapping, "soulseek")

	portNode := mappingValue(soulseek, "listen_port")
	if portNode != nil {
		currentPort, _ = strconv.Atoi(portNode.Value)
	}
	if currentPort == port {
		return document, currentPort, false, nil
	}

	if portNode == nil {
		soulseek.Content = append(soulseek.Content,
			scalarNode("listen_port", "!!str"),
			scalarNode(strconv.Itoa(port), "!!int"),
		)
	} else {
		portNode.Kind = yaml.ScalarNode
		portNode.Tag = "!!int"
		portNode.Value = strconv.Itoa(port)
		portNode.Style = 0
		portNode.Content = nil
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(mapping); err != nil {
		return "", 0, false, fmt.Errorf("serializing slskd options document: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", 0, false, fmt.Errorf("serializing slskd options document: %w", err)
	}
	return buffer.String(), currentPort, true, nil
}

// documentMapping returns the document's root mapping node. Empty
// documents and documents with a non-mapping root (a bare scalar or a
// sequence) yield a fresh empty mapping.
func documentMapping(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 && root.Content[0].Kind == yaml.MappingNode {
		return root.Content[0]
	}
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// ensureChildMapping returns the mapping stored under key, creating it
// when missing and replacing a non-mapping value in place.
func ensureChildMapping(mapping *yaml.Node, key string) *yaml.Node {
	value := mappingValue(mapping, key)
	if value == nil {
		value = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		mapping.Content = append(mapping.Content, scalarNode(key, "!!str"), value)
		return value
	}
	if value.Kind != yaml.MappingNode {
		value.Kind = yaml.MappingNode
		value.Tag = "!!map"
		value.Value = ""
		value.Style = 0
		value.Content = nil
	}
	return value
}

// mappingValue returns the value node for key, or nil when the key is
// absent.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func scalarNode(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
