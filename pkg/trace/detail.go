package trace

import "strings"

// DetailNode is one node of the decoded detail tree a parser may attach to
// a record. The shape is closed: a name (field label), a value (decoded
// content after the label), a raw content string, and ordered children.
type DetailNode struct {
	Name     string
	Value    string
	Content  string
	Children []DetailNode
}

// ContainsText reports whether the node's name, value or content contains
// the given text, case-insensitively.
func (n *DetailNode) ContainsText(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(strings.ToUpper(n.Name), upper) ||
		strings.Contains(strings.ToUpper(n.Value), upper) ||
		strings.Contains(strings.ToUpper(n.Content), upper)
}

// Find walks the tree depth-first and returns the first node satisfying the
// predicate, or nil. The receiver itself is considered first.
func (n *DetailNode) Find(pred func(*DetailNode) bool) *DetailNode {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].Find(pred); found != nil {
			return found
		}
	}
	return nil
}

// FindNamed returns the first node (depth-first) whose name contains the
// given text, case-insensitively.
func (n *DetailNode) FindNamed(name string) *DetailNode {
	upper := strings.ToUpper(name)
	return n.Find(func(node *DetailNode) bool {
		return strings.Contains(strings.ToUpper(node.Name), upper)
	})
}

// ChildContaining returns the first direct or nested child whose content
// contains the given text, case-insensitively. Unlike Find, the receiver
// itself is not considered.
func (n *DetailNode) ChildContaining(text string) *DetailNode {
	if n == nil {
		return nil
	}
	for i := range n.Children {
		if found := n.Children[i].Find(func(node *DetailNode) bool {
			return node.ContainsText(text)
		}); found != nil {
			return found
		}
	}
	return nil
}

// ValueAfterLabel returns the part of the node's value or content following
// the first ": " separator, which is how parsers render "Label: decoded
// value" pairs. The whole value is returned when no separator is present.
func (n *DetailNode) ValueAfterLabel() string {
	source := n.Value
	if source == "" {
		source = n.Content
	}
	if idx := strings.Index(source, ": "); idx >= 0 {
		return source[idx+2:]
	}
	return source
}
