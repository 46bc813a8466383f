// Package schemafile loads form schemas declared in YAML or HCL files.
//
// A YAML schema:
//
//	unknown: strip
//	fields:
//	  - name: title
//	    type: text
//	    required: true
//	  - name: pets
//	    type: array
//	    max: 3
//	    items: {type: select, options: [cat, dog, bird]}
//
// The same schema in HCL:
//
//	unknown = "strip"
//	field "title" {
//	  type     = "text"
//	  required = true
//	}
//	field "pets" {
//	  type = "array"
//	  max  = 3
//	  items {
//	    type    = "select"
//	    options = ["cat", "dog", "bird"]
//	  }
//	}
package schemafile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	g "github.com/reoring/goform/dsl"
)

// Field types understood by Build.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeCheckbox = "checkbox"
	TypeSelect   = "select"
	TypeRadio    = "radio"
	TypeString   = "string"
	TypeBool     = "bool"
	TypeArray    = "array"
	TypeObject   = "object"
)

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("schemafile: unsupported format")

// File is a declared object schema.
type File struct {
	// Unknown is the undeclared-key policy: keep (default), strip or strict.
	Unknown string  `yaml:"unknown"`
	Fields  []Field `yaml:"fields"`
}

// Field declares one field. Items applies to arrays; Fields and Unknown to
// objects.
type Field struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
	Message  string `yaml:"message"`
	// RequiredWith makes the field required when the named sibling is
	// present and not empty.
	RequiredWith string   `yaml:"requiredWith"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	Integer      bool     `yaml:"integer"`
	Pattern      string   `yaml:"pattern"`
	Email        bool     `yaml:"email"`
	Options      []string `yaml:"options"`
	Description  string   `yaml:"description"`
	Items        *Field   `yaml:"items"`
	Fields       []Field  `yaml:"fields"`
	Unknown      string   `yaml:"unknown"`
}

// Load reads a schema from path, choosing the syntax by extension:
// .yaml, .yml and .json are read as YAML, .hcl as HCL.
func Load(path string) (*g.ObjectSchema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return ParseYAML(src)
	case ".hcl":
		return ParseHCL(src, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Build turns a declaration into an object schema.
func Build(f File) (*g.ObjectSchema, error) {
	b, err := buildObject(f.Fields, f.Unknown, "")
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func buildObject(fields []Field, unknown, at string) (*g.ObjectBuilder, error) {
	b := g.Object()
	switch unknown {
	case "", "keep":
	case "strip":
		b.UnknownStrip()
	case "strict":
		b.UnknownStrict()
	default:
		return nil, fmt.Errorf("schemafile: %s: unknown policy %q", where(at), unknown)
	}
	seen := map[string]bool{}
	for _, fd := range fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("schemafile: %s: field without a name", where(at))
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("schemafile: %s: duplicate field %q", where(at), fd.Name)
		}
		seen[fd.Name] = true
		path := join(at, fd.Name)
		node, err := buildNode(fd, path)
		if err != nil {
			return nil, err
		}
		step := b.Field(fd.Name, node)
		if other := fd.RequiredWith; other != "" {
			if other == fd.Name {
				return nil, fmt.Errorf("schemafile: %s: requiredWith refers to itself", path)
			}
			step.RequiredWhen(func(_ context.Context, obj map[string]any) bool { return present(obj[other]) })
		}
	}
	return b, nil
}

func buildNode(fd Field, path string) (g.Node, error) {
	switch fd.Type {
	case TypeText, TypeString, "":
		s := g.String()
		if fd.Type != TypeString {
			s = g.TextField()
		}
		return stringNode(s, fd, path)
	case TypeSelect, TypeRadio:
		if len(fd.Options) == 0 {
			return nil, fmt.Errorf("schemafile: %s: %s needs options", path, fd.Type)
		}
		return stringNode(g.TextField(), fd, path)
	case TypeNumber:
		n := g.NumberField()
		if fd.Required {
			n.Required(fd.Message)
		}
		if fd.Min != nil {
			n.Min(*fd.Min)
		}
		if fd.Max != nil {
			n.Max(*fd.Max)
		}
		if fd.Integer {
			n.Integer()
		}
		return n.Describe(fd.Description), nil
	case TypeCheckbox:
		return g.CheckBox(), nil
	case TypeBool:
		b := g.Bool()
		if fd.Required {
			b.Required(fd.Message)
		}
		return b, nil
	case TypeArray:
		if fd.Items == nil {
			return nil, fmt.Errorf("schemafile: %s: array needs items", path)
		}
		elem, err := buildNode(*fd.Items, path+"[]")
		if err != nil {
			return nil, err
		}
		a := g.Array(elem)
		if fd.Required {
			a.Required(fd.Message)
		}
		if fd.Min != nil {
			a.Min(int(*fd.Min))
		}
		if fd.Max != nil {
			a.Max(int(*fd.Max))
		}
		return a.Describe(fd.Description), nil
	case TypeObject:
		b, err := buildObject(fd.Fields, fd.Unknown, path)
		if err != nil {
			return nil, err
		}
		if fd.Required {
			b.Required(fd.Message)
		}
		return b.Build()
	default:
		return nil, fmt.Errorf("schemafile: %s: unknown type %q", path, fd.Type)
	}
}

func stringNode(s *g.StringNode, fd Field, path string) (g.Node, error) {
	if fd.Required {
		s.Required(fd.Message)
	}
	if fd.Min != nil {
		s.Min(int(*fd.Min))
	}
	if fd.Max != nil {
		s.Max(int(*fd.Max))
	}
	if fd.Pattern != "" {
		re, err := regexp.Compile(fd.Pattern)
		if err != nil {
			return nil, fmt.Errorf("schemafile: %s: pattern: %w", path, err)
		}
		s.Matches(re)
	}
	if fd.Email {
		s.Email()
	}
	if len(fd.Options) > 0 {
		s.OneOf(fd.Options)
	}
	return s.Describe(fd.Description), nil
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}

func join(at, name string) string {
	if at == "" {
		return name
	}
	return at + "." + name
}

func where(at string) string {
	if at == "" {
		return "root"
	}
	return at
}
