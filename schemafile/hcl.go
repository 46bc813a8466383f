package schemafile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	g "github.com/reoring/goform/dsl"
)

type hclFile struct {
	Unknown *string     `hcl:"unknown,optional"`
	Fields  []*hclField `hcl:"field,block"`
}

type hclField struct {
	Name         string      `hcl:"name,label"`
	Type         string      `hcl:"type"`
	Required     *bool       `hcl:"required,optional"`
	Message      *string     `hcl:"message,optional"`
	RequiredWith *string     `hcl:"required_with,optional"`
	Min          *float64    `hcl:"min,optional"`
	Max          *float64    `hcl:"max,optional"`
	Integer      *bool       `hcl:"integer,optional"`
	Pattern      *string     `hcl:"pattern,optional"`
	Email        *bool       `hcl:"email,optional"`
	Options      []string    `hcl:"options,optional"`
	Description  *string     `hcl:"description,optional"`
	Unknown      *string     `hcl:"unknown,optional"`
	Items        *hclItems   `hcl:"items,block"`
	Fields       []*hclField `hcl:"field,block"`
}

// hclItems is an unlabeled field body describing array elements.
type hclItems struct {
	Type        string      `hcl:"type"`
	Required    *bool       `hcl:"required,optional"`
	Message     *string     `hcl:"message,optional"`
	Min         *float64    `hcl:"min,optional"`
	Max         *float64    `hcl:"max,optional"`
	Integer     *bool       `hcl:"integer,optional"`
	Pattern     *string     `hcl:"pattern,optional"`
	Email       *bool       `hcl:"email,optional"`
	Options     []string    `hcl:"options,optional"`
	Description *string     `hcl:"description,optional"`
	Unknown     *string     `hcl:"unknown,optional"`
	Items       *hclItems   `hcl:"items,block"`
	Fields      []*hclField `hcl:"field,block"`
}

// ParseHCL builds a schema from HCL source. filename is used in
// diagnostics.
func ParseHCL(src []byte, filename string) (*g.ObjectSchema, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("schemafile: failed to parse HCL file %s: %w", filename, diags)
	}
	var hf hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &hf); diags.HasErrors() {
		return nil, fmt.Errorf("schemafile: failed to decode HCL file %s: %w", filename, diags)
	}
	return Build(File{Unknown: deref(hf.Unknown), Fields: convertFields(hf.Fields)})
}

func convertFields(in []*hclField) []Field {
	out := make([]Field, 0, len(in))
	for _, f := range in {
		out = append(out, convertField(f))
	}
	return out
}

func convertField(f *hclField) Field {
	fd := Field{
		Name:         f.Name,
		Type:         f.Type,
		Required:     deref(f.Required),
		Message:      deref(f.Message),
		RequiredWith: deref(f.RequiredWith),
		Min:          f.Min,
		Max:          f.Max,
		Integer:      deref(f.Integer),
		Pattern:      deref(f.Pattern),
		Email:        deref(f.Email),
		Options:      f.Options,
		Description:  deref(f.Description),
		Unknown:      deref(f.Unknown),
		Fields:       convertFields(f.Fields),
	}
	if it := f.Items; it != nil {
		items := convertField(&hclField{
			Type: it.Type, Required: it.Required, Message: it.Message,
			Min: it.Min, Max: it.Max, Integer: it.Integer,
			Pattern: it.Pattern, Email: it.Email, Options: it.Options,
			Description: it.Description, Unknown: it.Unknown,
			Items: it.Items, Fields: it.Fields,
		})
		fd.Items = &items
	}
	return fd
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
