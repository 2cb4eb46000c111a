// Package richtext is the CMS rich-text tree: a closed set of node types that
// encode to the CMS JSON document shape.
package richtext

import (
	"encoding/json"
)

type NodeType string

const (
	TypeDoc         NodeType = "doc"
	TypeParagraph   NodeType = "paragraph"
	TypeHeading     NodeType = "heading"
	TypeBulletList  NodeType = "bullet_list"
	TypeOrderedList NodeType = "ordered_list"
	TypeListItem    NodeType = "list_item"
	TypeText        NodeType = "text"
	TypeImage       NodeType = "image"
	TypeBlok        NodeType = "blok"
)

// Node is one of *Doc, *Paragraph, *Heading, *BulletList, *OrderedList,
// *ListItem, *Text, *Image or *Blok.
type Node interface {
	Type() NodeType
	encode() map[string]any
}

type Doc struct {
	Content []Node
}

type Paragraph struct {
	Content []Node
}

type Heading struct {
	Level   int
	Content []Node
}

type BulletList struct {
	Content []Node
}

type OrderedList struct {
	Content []Node
}

type ListItem struct {
	Content []Node
}

type Text struct {
	Text  string
	Marks []Mark
}

type Image struct {
	Src   string
	Alt   string
	Title string
}

// Blok embeds a CMS component inside rich text. Fields are the component's
// own payload and are passed through opaquely.
type Blok struct {
	ID        string
	Component string
	Fields    map[string]any
}

func (*Doc) Type() NodeType         { return TypeDoc }
func (*Paragraph) Type() NodeType   { return TypeParagraph }
func (*Heading) Type() NodeType     { return TypeHeading }
func (*BulletList) Type() NodeType  { return TypeBulletList }
func (*OrderedList) Type() NodeType { return TypeOrderedList }
func (*ListItem) Type() NodeType    { return TypeListItem }
func (*Text) Type() NodeType        { return TypeText }
func (*Image) Type() NodeType       { return TypeImage }
func (*Blok) Type() NodeType        { return TypeBlok }

func (n *Doc) encode() map[string]any       { return container(TypeDoc, n.Content) }
func (n *Paragraph) encode() map[string]any { return container(TypeParagraph, n.Content) }
func (n *BulletList) encode() map[string]any {
	return container(TypeBulletList, n.Content)
}
func (n *OrderedList) encode() map[string]any {
	m := container(TypeOrderedList, n.Content)
	m["attrs"] = map[string]any{"order": 1}
	return m
}
func (n *ListItem) encode() map[string]any { return container(TypeListItem, n.Content) }

func (n *Heading) encode() map[string]any {
	m := container(TypeHeading, n.Content)
	m["attrs"] = map[string]any{"level": n.Level}
	return m
}

func (n *Text) encode() map[string]any {
	m := map[string]any{"type": string(TypeText), "text": n.Text}
	if len(n.Marks) > 0 {
		marks := make([]any, len(n.Marks))
		for i, mk := range n.Marks {
			marks[i] = mk.encode()
		}
		m["marks"] = marks
	}
	return m
}

func (n *Image) encode() map[string]any {
	return map[string]any{
		"type": string(TypeImage),
		"attrs": map[string]any{
			"src":   n.Src,
			"alt":   n.Alt,
			"title": n.Title,
		},
	}
}

func (n *Blok) encode() map[string]any {
	body := make(map[string]any, len(n.Fields)+2)
	for k, v := range n.Fields {
		body[k] = v
	}
	body["_uid"] = n.ID
	body["component"] = n.Component
	return map[string]any{
		"type": string(TypeBlok),
		"attrs": map[string]any{
			"id":   n.ID,
			"body": []any{body},
		},
	}
}

func container(t NodeType, content []Node) map[string]any {
	m := map[string]any{"type": string(t)}
	if len(content) > 0 {
		m["content"] = encodeAll(content)
	}
	return m
}

func encodeAll(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, n.encode())
	}
	return out
}

// Encode converts a node into generic JSON values, the shape stored in CMS
// story content and walked by the translator.
func Encode(n Node) map[string]any {
	if n == nil {
		return nil
	}
	return n.encode()
}

func (n *Doc) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.encode())
}

// IsList reports whether n is a bullet or ordered list.
func IsList(n Node) bool {
	switch n.(type) {
	case *BulletList, *OrderedList:
		return true
	}
	return false
}

func listContent(n Node) []Node {
	switch l := n.(type) {
	case *BulletList:
		return l.Content
	case *OrderedList:
		return l.Content
	}
	return nil
}

// withContent returns a copy of list n holding content.
func withContent(n Node, content []Node) Node {
	switch n.(type) {
	case *BulletList:
		return &BulletList{Content: content}
	case *OrderedList:
		return &OrderedList{Content: content}
	}
	return n
}

// PlainText concatenates all text leaves under n.
func PlainText(n Node) string {
	var out []byte
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Text:
			out = append(out, v.Text...)
		default:
			for _, c := range children(n) {
				walk(c)
			}
		}
	}
	walk(n)
	return string(out)
}

func children(n Node) []Node {
	switch v := n.(type) {
	case *Doc:
		return v.Content
	case *Paragraph:
		return v.Content
	case *Heading:
		return v.Content
	case *BulletList:
		return v.Content
	case *OrderedList:
		return v.Content
	case *ListItem:
		return v.Content
	}
	return nil
}
