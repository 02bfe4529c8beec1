package gbp

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// xmlNode is a namespace-agnostic element tree used to read SOAP responses
// whose schema is not known in advance.
type xmlNode struct {
	Name     string
	Text     string
	Children []*xmlNode
}

func parseXMLTree(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var stack []*xmlNode
	var root *xmlNode

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{Name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("empty XML document")
	}
	return root, nil
}

func (n *xmlNode) child(name string) *xmlNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *xmlNode) isLeaf() bool {
	return len(n.Children) == 0
}

// value converts the node into a string (leaf) or a map of its children.
// Repeated child names become []any in document order.
func (n *xmlNode) value() any {
	if n.isLeaf() {
		return strings.TrimSpace(n.Text)
	}
	return n.toMap()
}

func (n *xmlNode) toMap() map[string]any {
	out := make(map[string]any, len(n.Children))
	for _, c := range n.Children {
		v := c.value()
		existing, ok := out[c.Name]
		if !ok {
			out[c.Name] = v
			continue
		}
		if list, isList := existing.([]any); isList {
			out[c.Name] = append(list, v)
		} else {
			out[c.Name] = []any{existing, v}
		}
	}
	return out
}

// firstText returns the first non-empty leaf text in document order.
func (n *xmlNode) firstText() string {
	if n.isLeaf() {
		return strings.TrimSpace(n.Text)
	}
	for _, c := range n.Children {
		if s := c.firstText(); s != "" {
			return s
		}
	}
	return ""
}

// unwrapResult descends through <XxxResponse>/<XxxResult> wrappers.
func (n *xmlNode) unwrapResult() *xmlNode {
	cur := n
	for len(cur.Children) == 1 && !cur.Children[0].isLeaf() {
		name := cur.Children[0].Name
		if !strings.HasSuffix(name, "Response") && !strings.HasSuffix(name, "Result") {
			break
		}
		cur = cur.Children[0]
	}
	return cur
}
