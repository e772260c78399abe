package vdom

import "strings"

func attr(key string, value any) Attr { return Attr{Key: key, Value: value} }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute. Repeated Class attributes accumulate.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// Key sets the reconciliation key. It is not rendered.
func Key(k string) Attr { return attr("key", k) }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return attr("data-"+key, value) }

// AttrKV sets an arbitrary attribute.
func AttrKV(key string, value any) Attr { return attr(key, value) }

func Name(v string) Attr        { return attr("name", v) }
func Type(v string) Attr        { return attr("type", v) }
func Value(v string) Attr       { return attr("value", v) }
func Placeholder(v string) Attr { return attr("placeholder", v) }
func Href(v string) Attr        { return attr("href", v) }
func Src(v string) Attr         { return attr("src", v) }
func Charset(v string) Attr     { return attr("charset", v) }
func Role(v string) Attr        { return attr("role", v) }
func AriaLive(mode string) Attr { return attr("aria-live", mode) }
func AriaBusy(busy bool) Attr   { return attr("aria-busy", busy) }
func Autofocus() Attr           { return attr("autofocus", true) }
func Disabled(d bool) Attr      { return attr("disabled", d) }
