// Package errors provides the structured error type used across the module.
//
// Errors carry a registered code, a category and optional detail and
// suggestion text. They wrap an underlying cause, so errors.Is and
// errors.As from the standard library work through them:
//
//	err := errors.New(errors.CodeLoadFailed).Wrap(cause)
//	if errors.HasCode(err, errors.CodeLoadFailed) { ... }
package errors
