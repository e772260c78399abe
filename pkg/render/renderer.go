package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/vango-dev/gated/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty indents block elements. Development only.
	Pretty bool

	// Indent is the per-level indentation in pretty mode. Defaults to two
	// spaces.
	Indent string

	// Doctype prefixes the output with <!DOCTYPE html> when the root is an
	// <html> element.
	Doctype bool
}

// Renderer renders vdom trees to HTML. A Renderer is stateless and safe for
// concurrent use.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a Renderer.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders node to a string.
func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	bw := bufio.NewWriter(w)
	if r.config.Doctype && node != nil && node.Kind == vdom.KindElement && node.Tag == "html" {
		bw.WriteString("<!DOCTYPE html>")
		if r.config.Pretty {
			bw.WriteByte('\n')
		}
	}
	if err := r.renderNode(bw, node, 0); err != nil {
		return err
	}
	return bw.Flush()
}

func (r *Renderer) renderNode(w *bufio.Writer, node *vdom.VNode, depth int) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case vdom.KindElement:
		return r.renderElement(w, node, depth)
	case vdom.KindText:
		_, err := w.WriteString(escapeHTML(node.Text))
		return err
	case vdom.KindRaw:
		_, err := w.WriteString(node.Text)
		return err
	case vdom.KindFragment:
		for _, child := range node.Children {
			if err := r.renderNode(w, child, depth); err != nil {
				return err
			}
		}
		return nil
	case vdom.KindComponent:
		if node.Comp == nil {
			return nil
		}
		return r.renderNode(w, node.Comp.Render(), depth)
	default:
		return fmt.Errorf("render: unknown node kind %d", node.Kind)
	}
}

func (r *Renderer) renderElement(w *bufio.Writer, node *vdom.VNode, depth int) error {
	if node.Tag == "" {
		return fmt.Errorf("render: element without tag")
	}

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}
	w.WriteByte('<')
	w.WriteString(node.Tag)
	r.renderAttributes(w, node.Props)
	w.WriteByte('>')

	if vdom.IsVoidElement(node.Tag) {
		if r.config.Pretty {
			w.WriteByte('\n')
		}
		return nil
	}

	block := r.config.Pretty && hasElementChild(node)
	if block {
		w.WriteByte('\n')
	}
	for _, child := range node.Children {
		if err := r.renderNode(w, child, depth+1); err != nil {
			return err
		}
	}
	if block {
		r.writeIndent(w, depth)
	}

	w.WriteString("</")
	w.WriteString(node.Tag)
	w.WriteByte('>')
	if r.config.Pretty {
		w.WriteByte('\n')
	}
	return nil
}

func (r *Renderer) renderAttributes(w *bufio.Writer, props vdom.Props) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := props[k].(type) {
		case nil:
		case bool:
			if isBooleanAttr(k) {
				if v {
					w.WriteByte(' ')
					w.WriteString(k)
				}
				continue
			}
			writeAttr(w, k, strconv.FormatBool(v))
		default:
			if s := attrToString(v); s != "" {
				writeAttr(w, k, s)
			}
		}
	}
}

func writeAttr(w *bufio.Writer, key, value string) {
	w.WriteByte(' ')
	w.WriteString(key)
	w.WriteString(`="`)
	w.WriteString(escapeAttr(value))
	w.WriteByte('"')
}

var booleanAttrs = map[string]bool{
	"autofocus": true, "checked": true, "disabled": true, "hidden": true,
	"multiple": true, "readonly": true, "required": true, "selected": true,
}

func isBooleanAttr(key string) bool { return booleanAttrs[key] }

func attrToString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func hasElementChild(node *vdom.VNode) bool {
	for _, c := range node.Children {
		if c != nil && c.Kind != vdom.KindText {
			return true
		}
	}
	return false
}

func (r *Renderer) writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(r.config.Indent)
	}
}
