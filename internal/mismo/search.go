// internal/mismo/search.go
package mismo

import (
	"fmt"
	"strconv"
	"strings"
)

// findNode locates the first value stored under any of the given keys,
// searching the tree depth-first. Attribute keys carry the "-" prefix the
// XML decoder assigns, so both forms are tried for each name.
func findNode(obj interface{}, keys ...string) interface{} {
	switch node := obj.(type) {
	case map[string]interface{}:
		for _, key := range keys {
			if v, ok := node[key]; ok {
				return v
			}
			if v, ok := node["-"+key]; ok {
				return v
			}
		}
		for _, child := range node {
			switch child.(type) {
			case map[string]interface{}, []interface{}:
				if found := findNode(child, keys...); found != nil {
					return found
				}
			}
		}
	case []interface{}:
		for _, item := range node {
			if found := findNode(item, keys...); found != nil {
				return found
			}
		}
	}
	return nil
}

// childNodes returns the element children stored under any of the given
// keys, normalizing the single-child and repeated-child decodings. When no
// named child exists, the container itself is treated as one child so flat
// documents still parse.
func childNodes(container interface{}, keys ...string) []map[string]interface{} {
	node, ok := container.(map[string]interface{})
	if !ok {
		if list, ok := container.([]interface{}); ok {
			return mapItems(list)
		}
		return nil
	}

	for _, key := range keys {
		child, ok := node[key]
		if !ok {
			continue
		}
		switch c := child.(type) {
		case []interface{}:
			return mapItems(c)
		case map[string]interface{}:
			return []map[string]interface{}{c}
		}
	}
	return []map[string]interface{}{node}
}

func mapItems(list []interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func getString(obj interface{}, keys ...string) string {
	v := findNode(obj, keys...)
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func getFloat(obj interface{}, keys ...string) float64 {
	v := findNode(obj, keys...)
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func getInt(obj interface{}, keys ...string) int {
	return int(getFloat(obj, keys...))
}

func getBool(obj interface{}, keys ...string) bool {
	v := findNode(obj, keys...)
	if v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return b != 0
	}
	return false
}
