package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <ul>, ...
	KindText                   // escaped text
	KindFragment               // children without a wrapper
	KindComponent              // nested component, rendered lazily
	KindRaw                    // unescaped HTML
)

// String returns the name of the kind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is a virtual DOM node.
type VNode struct {
	Kind     VKind
	Tag      string
	Props    Props
	Children []*VNode
	Key      string
	Text     string
	Comp     Component
}

// Props holds element attributes.
type Props map[string]any

// Attr is a single attribute. The zero Attr is ignored by element factories.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty reports whether the attribute should be skipped.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Component is anything that renders to a VNode.
type Component interface {
	Render() *VNode
}

type funcComponent func() *VNode

func (f funcComponent) Render() *VNode { return f() }

// Func turns a render function into a Component.
func Func(render func() *VNode) Component {
	return funcComponent(render)
}
