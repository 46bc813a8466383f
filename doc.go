// Package goform provides:
//
// - A Form root scope holding a single data tree, touched sets, errors and a submission flag
// - Nested object scopes and array row scopes whose writes bubble up to the root with structural sharing
// - Reactive field views (value, touched, errors, validity) derived through package signal
// - A validation bridge mapping schema Issues (JSON Pointer) onto dotted field paths
//
// Design policy:
// - Keep only public APIs in the root package; put path handling under fieldpath/ and reactivity under signal/.
// - Place the schema DSL under dsl/, payload parsing under formdata/, and the CLI under cmd/goform.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	form := goform.NewForm(goform.WithSchema(s), goform.WithDefaultData(data))
//	title := goform.Project(form, "title")
//	title.Change("Hello")
//
//	authors := goform.MustArray(form, "authors")
//	goform.Project(authors.Row(0), "firstName").SetData("Ada")
//
//	res, err := form.Submit(ctx)
package goform
