// Package render turns vdom trees into HTML.
//
//	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(node)
//
// Attributes are written in sorted order so output is deterministic, which
// keeps rendered fragments diffable and testable.
package render
