// Package config loads command line defaults from YAML files.
//
// A file holds global flags at the top level and per-command flags under a
// key named after the command:
//
//	workers: 4
//	log-level: debug
//	encode:
//	  channels: "4"
//	  colorspace: linear
//
// Keys may use dashes or underscores. Flags given on the command line win
// over the file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader for YAML files.
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("could not parse YAML configuration: %w", err)
	}

	var f kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if section, ok := lookup(values, parent.Command.Name).(map[string]any); ok {
				if v := lookup(section, flag.Name); v != nil {
					return v, nil
				}
			}
		}
		return lookup(values, flag.Name), nil
	}
	return f, nil
}

func lookup(values map[string]any, name string) any {
	if v, ok := values[name]; ok {
		return scalar(v)
	}
	if v, ok := values[strings.ReplaceAll(name, "-", "_")]; ok {
		return scalar(v)
	}
	return nil
}

// scalar leaves sections alone and renders lists the way kong reads
// repeated values.
func scalar(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}
	return strings.Join(parts, ",")
}
