package feaast

// Node is a lossless concrete-syntax-tree node: either an interior node
// with Children, or a leaf wrapping exactly one Token. Whitespace and
// comment trivia are themselves ordinary leaf children, interleaved with
// semantic tokens in document order, so walking Children in order and
// concatenating every leaf's Text reproduces the source exactly (the
// round-trip law of §8).
type Node struct {
	Kind     Kind
	Token    *Token // set for leaf nodes, including trivia leaves
	Children []*Node
	Start    int
	End      int
}

// IsLeaf reports whether n wraps a single token rather than children.
func (n *Node) IsLeaf() bool {
	return n != nil && n.Token != nil
}

// Text returns the node's own source text: for a leaf, the token text
// (including trivia leaves); for an interior node, the concatenation of
// all descendant leaf texts in document order.
func (n *Node) Text() string {
	var b []byte
	n.appendText(&b)
	return string(b)
}

func (n *Node) appendText(b *[]byte) {
	if n == nil {
		return
	}
	if n.IsLeaf() {
		*b = append(*b, n.Token.Text...)
		return
	}
	for _, c := range n.Children {
		c.appendText(b)
	}
}

// Range returns the node's byte range for diagnostics (§4.3 "Nodes carry
// their original byte ranges for diagnostics").
func (n *Node) Range() (int, int) {
	return n.Start, n.End
}

// Walk calls visit for n and, recursively, for every descendant, in
// document order.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// FindAll returns every descendant node (including n) whose Kind equals
// kind, in document order.
func (n *Node) FindAll(kind Kind) []*Node {
	var out []*Node
	n.Walk(func(c *Node) {
		if c.Kind == kind {
			out = append(out, c)
		}
	})
	return out
}

// Diagnostic is a parse-time error recorded on the tree (§4.3 "Every
// error carries a range and a message"); it is carried separately from
// diag.Diagnostic because the parser package must not import the
// compiler's diagnostic sink (layering: C does not depend on E).
type Diagnostic struct {
	Start, End int
	Message    string
}

// Tree is the parse result: the root node plus any errors recorded
// during the parse (§4.3 "Error model": errors never abort parsing).
type Tree struct {
	Root   *Node
	Errors []Diagnostic
}
