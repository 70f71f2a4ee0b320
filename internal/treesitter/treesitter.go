package treesitter

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ErrParseFailed is returned when tree-sitter produces no tree for a source file.
var ErrParseFailed = errors.New("parse failed")

// Parser parses source files of a single language.
// A fresh tree-sitter parser is created per call, so a Parser may be shared between goroutines.
type Parser struct {
	language *sitter.Language
	lang     string
}

// NewParser creates a parser for the given tree-sitter language.
func NewParser(language *sitter.Language, lang string) *Parser {
	return &Parser{
		language: language,
		lang:     lang,
	}
}

// NewPythonParser creates a parser for Python sources.
func NewPythonParser() *Parser {
	return NewParser(sitter.NewLanguage(python.Language()), "python")
}

// Language returns the language name.
func (p *Parser) Language() string {
	return p.lang
}

// Parse parses source into a File. The caller owns the returned File and must Close it.
func (p *Parser) Parse(filePath string, source []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s file %s", ErrParseFailed, p.lang, filePath)
	}

	return &File{
		Path:   filePath,
		Source: source,
		Tree:   tree,
	}, nil
}

// File is a parsed source file. Nodes obtained from it are valid until Close.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
}

// Root returns the root node of the syntax tree.
func (f *File) Root() *sitter.Node {
	return f.Tree.RootNode()
}

// Text returns the source text covered by node.
func (f *File) Text(node *sitter.Node) string {
	return NodeText(node, f.Source)
}

// Close releases the syntax tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// NodeText extracts the text content of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// WalkTree walks the tree in pre-order. Returning false from visitor skips the node's children.
func WalkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		WalkTree(node.Child(uint(i)), visitor)
	}
}

// FindChildByType finds the first child node with the given type.
func FindChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// NamedChildren returns the named children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(uint(i))
		if child == nil || child.Kind() == "comment" {
			continue
		}
		results = append(results, child)
	}
	return results
}

// SameNode reports whether a and b cover the same range with the same kind.
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

// Contains reports whether inner lies within outer's byte range.
func Contains(outer, inner *sitter.Node) bool {
	if outer == nil || inner == nil {
		return false
	}
	return inner.StartByte() >= outer.StartByte() && inner.EndByte() <= outer.EndByte()
}

// ContainedInAny reports whether node lies within any of the given nodes.
func ContainedInAny(nodes []*sitter.Node, node *sitter.Node) bool {
	for _, outer := range nodes {
		if Contains(outer, node) {
			return true
		}
	}
	return false
}

// FirstError returns the first ERROR node in pre-order, or nil.
func FirstError(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	WalkTree(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// CountErrors counts ERROR nodes under root.
func CountErrors(root *sitter.Node) int {
	count := 0
	WalkTree(root, func(n *sitter.Node) bool {
		if n.IsError() {
			count++
		}
		return true
	})
	return count
}

// FirstMissing returns the first node the parser inserted to recover from an error, or nil.
func FirstMissing(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	WalkTree(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}
