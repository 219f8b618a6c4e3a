package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tristendillon/widgetforge/core/logger"
)

// DataNode is one level of the aggregated data document. Values are either
// leaves (string or decoded JSON) or nested DataNode maps.
type DataNode = map[string]any

// DataTree accumulates leaf values addressed by path segments.
type DataTree struct {
	Root    DataNode
	Entries int
}

func NewDataTree() *DataTree {
	return &DataTree{Root: DataNode{}}
}

// Insert stores value at segments. Intermediate segments become maps. At the
// final segment an object value is shallow-merged into an existing object;
// any other combination overwrites.
func (dt *DataTree) Insert(segments []string, value any) error {
	if len(segments) == 0 {
		return fmt.Errorf("cannot insert data at an empty path")
	}

	current := dt.Root
	for i, segment := range segments[:len(segments)-1] {
		existing, exists := current[segment]
		if child, ok := existing.(map[string]any); ok {
			current = child
			continue
		}
		if exists {
			logger.Warn("Data key %s held a value and is replaced by a nested object",
				strings.Join(segments[:i+1], "."))
		}
		child := DataNode{}
		current[segment] = child
		current = child
	}

	last := segments[len(segments)-1]
	incoming, incomingIsObject := value.(map[string]any)
	existing, existingIsObject := current[last].(map[string]any)
	if incomingIsObject && existingIsObject {
		for k, v := range incoming {
			existing[k] = v
		}
	} else {
		current[last] = value
	}

	dt.Entries++
	return nil
}

func (dt *DataTree) PrintTree(level logger.LogLevel) {
	dt.printNode(dt.Root, "", level)
}

func (dt *DataTree) printNode(node DataNode, prefix string, level logger.LogLevel) {
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		child, isNode := node[key].(map[string]any)
		if isNode {
			logger.GetLogFromLevel(level)("%s%s/", prefix, key)
			dt.printNode(child, prefix+"  ", level)
			continue
		}
		logger.GetLogFromLevel(level)("%s%s (%T)", prefix, key, node[key])
	}
}
