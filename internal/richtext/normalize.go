package richtext

// Normalize coalesces consecutive list nodes of the same kind into one list.
// Any non-list node or a list of the other kind closes the open list.
//
// Converted list items arrive wrapped in one list layer per nesting level, so
// a nested item looks like a list whose first child is itself a list. While
// merging, such inner lists are attached to the last item of the open list,
// which rebuilds the nesting. Input nodes are never mutated, and running
// Normalize on its own output returns an equal sequence.
func Normalize(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	var open Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !IsList(n) {
			if open != nil {
				out = append(out, open)
				open = nil
			}
			out = append(out, n)
			continue
		}
		if open != nil && open.Type() == n.Type() {
			open = mergeList(open, listContent(n))
			continue
		}
		if open != nil {
			out = append(out, open)
		}
		open = withContent(n, append([]Node(nil), listContent(n)...))
	}
	if open != nil {
		out = append(out, open)
	}
	return out
}

// mergeList returns a copy of list holding its content followed by incoming.
// Nested lists in incoming attach to the last list item.
func mergeList(list Node, incoming []Node) Node {
	content := append([]Node(nil), listContent(list)...)
	for _, child := range incoming {
		if !IsList(child) {
			content = append(content, child)
			continue
		}
		last := len(content) - 1
		item, ok := lastItem(content)
		if !ok {
			content = append(content, child)
			continue
		}
		content[last] = attachNested(item, child)
	}
	return withContent(list, content)
}

// attachNested returns a copy of item with the nested list appended, merged
// into a trailing list of the same kind when one exists.
func attachNested(item *ListItem, nested Node) *ListItem {
	content := append([]Node(nil), item.Content...)
	if n := len(content); n > 0 && content[n-1].Type() == nested.Type() {
		content[n-1] = mergeList(content[n-1], listContent(nested))
	} else {
		content = append(content, withContent(nested, append([]Node(nil), listContent(nested)...)))
	}
	return &ListItem{Content: content}
}

func lastItem(content []Node) (*ListItem, bool) {
	if len(content) == 0 {
		return nil, false
	}
	item, ok := content[len(content)-1].(*ListItem)
	return item, ok
}
