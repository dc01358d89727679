package feaast

// Print reconstructs source text from a tree, byte-for-byte identical to
// the input that produced it when the tree carries no errors (§8 "a
// parsed-then-printed feature file is byte-identical to its input").
// This is a thin wrapper over Node.Text: the lexer/parser already
// preserve every byte as either a leaf token or attached trivia, so no
// further formatting logic is needed.
func Print(t *Tree) string {
	if t == nil || t.Root == nil {
		return ""
	}
	return t.Root.Text()
}

// RoundTrips reports whether parsing src and printing the result
// reproduces src exactly.
func RoundTrips(src string) bool {
	return Print(Parse(src)) == src
}
