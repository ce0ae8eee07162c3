package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// readFile loads a YAML config file and flattens it to environment names:
//
//	backend:
//	  anon_key: abc   => MARKS_BACKEND_ANON_KEY=abc
//	allowed_hosts: [a, b] => MARKS_ALLOWED_HOSTS=a,b
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	out := make(map[string]string)
	if err := flatten("MARKS", root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := prefix + "_" + strings.ToUpper(strings.ReplaceAll(k, "-", "_"))
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case []any:
			items := make([]string, 0, len(val))
			for _, item := range val {
				if _, nested := item.(map[string]any); nested {
					return fmt.Errorf("config key %s: lists may only hold scalars", key)
				}
				items = append(items, fmt.Sprint(item))
			}
			out[key] = strings.Join(items, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return nil
}
