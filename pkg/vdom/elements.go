package vdom

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "source": true, "wbr": true,
}

// IsVoidElement reports whether tag cannot have children.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element with an arbitrary tag.
// Arguments may be nil, Attr, []Attr, *VNode, []*VNode, Component or string.
func El(tag string, args ...any) *VNode {
	node := &VNode{Kind: KindElement, Tag: tag, Props: make(Props)}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case Attr:
			node.setAttr(v)
		case []Attr:
			for _, a := range v {
				node.setAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case Component:
			node.Children = append(node.Children, &VNode{Kind: KindComponent, Comp: v})
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}
	return node
}

func (n *VNode) setAttr(a Attr) {
	if a.IsEmpty() {
		return
	}
	if a.Key == "key" {
		if s, ok := a.Value.(string); ok {
			n.Key = s
		}
		return
	}
	if a.Key == "class" {
		prev, _ := n.Props["class"].(string)
		next, _ := a.Value.(string)
		if prev != "" && next != "" {
			n.Props["class"] = prev + " " + next
			return
		}
	}
	n.Props[a.Key] = a.Value
}

func Html(args ...any) *VNode    { return El("html", args...) }
func Head(args ...any) *VNode    { return El("head", args...) }
func Body(args ...any) *VNode    { return El("body", args...) }
func Title(args ...any) *VNode   { return El("title", args...) }
func Meta(args ...any) *VNode    { return El("meta", args...) }
func Script(args ...any) *VNode  { return El("script", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func H2(args ...any) *VNode      { return El("h2", args...) }
func Div(args ...any) *VNode     { return El("div", args...) }
func P(args ...any) *VNode       { return El("p", args...) }
func Span(args ...any) *VNode    { return El("span", args...) }
func Ul(args ...any) *VNode      { return El("ul", args...) }
func Li(args ...any) *VNode      { return El("li", args...) }
func Strong(args ...any) *VNode  { return El("strong", args...) }
func Small(args ...any) *VNode   { return El("small", args...) }
func Code(args ...any) *VNode    { return El("code", args...) }
func Form(args ...any) *VNode    { return El("form", args...) }
func Input(args ...any) *VNode   { return El("input", args...) }
func Label(args ...any) *VNode   { return El("label", args...) }
