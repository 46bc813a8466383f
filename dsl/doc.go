// Package dsl provides a schema DSL for goform.
//
// Overview
//   - Builder API: declare object semantics (unknown/required/conditional required/default/refine) with Object()/Field()/Required()/RequiredWhen()/MustBuild().
//   - Primitives/Array: String()/Number()/Bool()/Enum(), Array(elem) are provided.
//   - Form fields: TextField()/NumberField()/CheckBox()/Select()/RadioButton() read values the way browsers submit them.
//   - SchemaOf(s): adapt any goform.Schema to a Node to embed it into builders.
//
// Every node is a goform.Schema. Parse collects every failure unless the
// context is marked fail-fast (goform.WithFailFast). Failures are returned as
// goform.Issues whose Path is a JSON Pointer and whose Code is one of the
// goform.Code* constants; messages are rendered through package i18n with
// the dotted field path, e.g. "title is a required field".
//
// File layout (roles)
//   - node.go: the Node contract, message rendering, issue rebasing, SchemaOf.
//   - primitives.go: String/Number/Bool/Enum.
//   - object_builder.go: ObjectBuilder/fieldStep and Build/MustBuild.
//   - object_core.go: ObjectSchema (check/JSONSchema) and IssueAt.
//   - array.go: ArrayNode, including multi-select error attribution.
//   - form_fields.go: form-oriented helpers.
//
// Example (conditional required)
//
//	titleRequired := true
//	post := g.Object().
//	    Field("title", g.TextField()).
//	    RequiredWhen(func(context.Context, map[string]any) bool { return titleRequired }).
//	    Field("pets", g.Array(g.Select("cat", "dog", "bird")).Max(3)).
//	    MustBuild()
//	res, err := goform.Validate(ctx, post, map[string]any{"title": ""})
//	// res.Errors => [{Path:"title" Message:"title is a required field" Type:"required"}]
//
// Example (Refine: cross-field validation)
//
//	obj := g.Object().
//	    Field("password", g.TextField()).Required().
//	    Field("confirm",  g.TextField()).Required().
//	    Refine("password==confirm", func(ctx context.Context, m map[string]any) error {
//	        if m["password"] != m["confirm"] {
//	            return g.IssueAt("confirm", "{path} must match password")
//	        }
//	        return nil
//	    }).
//	    MustBuild()
//
// JSON Schema output hints
//
//	sch, _ := obj.JSONSchema()
//	// Note: UnknownStrict => additionalProperties=false
package dsl
