package main

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/formdata"
)

// readData loads a data tree from path ("-" for stdin). JSON and YAML files
// are read as documents; anything else is a URL-encoded form payload.
func readData(path string, stdin io.Reader) (map[string]any, error) {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = io.ReadAll(stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return goform.DecodeJSON(bytes.NewReader(src))
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(src, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml %s: %w", path, err)
		}
		if doc == nil {
			return map[string]any{}, nil
		}
		tree, ok := fieldpath.Normalize(doc).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: top level must be a mapping", path)
		}
		return tree, nil
	default:
		return parsePayload(string(src))
	}
}

func parsePayload(raw string) (map[string]any, error) {
	values, err := url.ParseQuery(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	return formdata.Parse(values)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
