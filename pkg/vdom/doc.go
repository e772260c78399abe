// Package vdom is the in-memory node tree components render to.
//
// Elements are built with variadic factories that accept attributes,
// children, text and nested components in any order:
//
//	Div(Class("results"), AriaLive("polite"),
//	    H2(Text("Objects")),
//	    Ul(Range(items, func(o Object) *VNode { return Li(Text(o.Key)) })),
//	)
//
// The tree is turned into HTML by package render.
package vdom
