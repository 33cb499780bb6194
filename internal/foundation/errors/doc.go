// Package errors provides the classified error type used across guidebuilder.
//
// Every failure that reaches the CLI carries a category (config, validation,
// content, render, ...) and a severity. The CLI adapter turns the category
// into a process exit code, so a broken frontmatter block and a missing
// layout directory exit differently.
//
//	err := errors.ValidationError("document has no order").
//		WithContext("path", "finance/intro.md").
//		Build()
package errors
