package schemafile

import (
	"bytes"
	"fmt"

	g "github.com/reoring/goform/dsl"
	"gopkg.in/yaml.v3"
)

// ParseYAML builds a schema from YAML source. Unknown keys are rejected so
// that typos such as "requierd" do not silently relax a form.
func ParseYAML(src []byte) (*g.ObjectSchema, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("schemafile: yaml: %w", err)
	}
	return Build(f)
}
