package python

import (
	"fmt"

	"github.com/mvp-joe/depsplit/internal/cache"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// publicSurfaceName is the module attribute that lists a module's public names.
const publicSurfaceName = "__all__"

// SymbolKind is the kind of a top-level declaration.
type SymbolKind string

const (
	SymbolClass    SymbolKind = "class"
	SymbolFunction SymbolKind = "function"
	SymbolVariable SymbolKind = "variable"
)

// Symbol is a top-level name declared in a file. Nodes holds every statement
// that defines, redefines or mutates it, in source order.
type Symbol struct {
	ID         string
	Kind       SymbolKind
	Nodes      []*sitter.Node
	Identifier *sitter.Node
}

// ModuleExports is the set of symbols declared by a file.
// PublicSymbols is nil unless the file assigns a non-empty list of strings to __all__.
type ModuleExports struct {
	Symbols       []*Symbol
	PublicSymbols []string

	byID map[string]*Symbol
}

func newModuleExports() *ModuleExports {
	return &ModuleExports{byID: make(map[string]*Symbol)}
}

// Lookup returns the symbol declared under name.
func (e *ModuleExports) Lookup(name string) (*Symbol, bool) {
	s, ok := e.byID[name]
	return s, ok
}

// HasPublicSurface reports whether the file declares __all__.
func (e *ModuleExports) HasPublicSurface() bool {
	return len(e.PublicSymbols) > 0
}

// InPublicSurface reports whether name is listed in __all__.
func (e *ModuleExports) InPublicSurface(name string) bool {
	for _, n := range e.PublicSymbols {
		if n == name {
			return true
		}
	}
	return false
}

// ExportExtractor finds the top-level symbols of parsed files.
type ExportExtractor struct {
	files *treesitter.FileSet
	memo  *cache.Memo[string, *ModuleExports]
}

// NewExportExtractor creates an extractor over files.
func NewExportExtractor(files *treesitter.FileSet) *ExportExtractor {
	return &ExportExtractor{
		files: files,
		memo:  cache.MustMemo[string, *ModuleExports](files.Len() + 1),
	}
}

// GetSymbols returns the symbols and public surface of filePath.
func (e *ExportExtractor) GetSymbols(filePath string) (*ModuleExports, error) {
	return e.memo.GetOrCompute(filePath, func() (*ModuleExports, error) {
		file, ok := e.files.Get(filePath)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return extractExports(file), nil
	})
}

func extractExports(file *treesitter.File) *ModuleExports {
	ex := newModuleExports()
	for _, child := range treesitter.NamedChildren(file.Root()) {
		switch child.Kind() {
		case "class_definition":
			ex.define(file, child, child, SymbolClass)
		case "function_definition":
			ex.define(file, child, child, SymbolFunction)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "class_definition":
				ex.define(file, child, def, SymbolClass)
			case "function_definition":
				ex.define(file, child, def, SymbolFunction)
			}
		case "expression_statement":
			ex.statement(file, child)
		}
	}
	return ex
}

func (ex *ModuleExports) define(file *treesitter.File, span, def *sitter.Node, kind SymbolKind) {
	name := def.ChildByFieldName("name")
	if name == nil {
		return
	}
	ex.declare(file.Text(name), kind, span, name)
}

// declare creates the symbol or appends span to an existing one.
func (ex *ModuleExports) declare(id string, kind SymbolKind, span, identifier *sitter.Node) {
	if s, ok := ex.byID[id]; ok {
		ex.appendSpan(s, span)
		return
	}
	s := &Symbol{
		ID:         id,
		Kind:       kind,
		Nodes:      []*sitter.Node{span},
		Identifier: identifier,
	}
	ex.byID[id] = s
	ex.Symbols = append(ex.Symbols, s)
}

func (ex *ModuleExports) appendSpan(s *Symbol, span *sitter.Node) {
	if last := s.Nodes[len(s.Nodes)-1]; treesitter.SameNode(last, span) {
		return
	}
	s.Nodes = append(s.Nodes, span)
}

func (ex *ModuleExports) statement(file *treesitter.File, stmt *sitter.Node) {
	for _, expr := range treesitter.NamedChildren(stmt) {
		switch expr.Kind() {
		case "assignment":
			ex.assignment(file, stmt, expr)
		case "augmented_assignment":
			ex.augmentedAssignment(file, stmt, expr)
		case "call":
			ex.mutation(file, stmt, expr)
		}
	}
}

func (ex *ModuleExports) assignment(file *treesitter.File, stmt, asg *sitter.Node) {
	left := asg.ChildByFieldName("left")
	right := asg.ChildByFieldName("right")
	if left == nil {
		return
	}

	switch left.Kind() {
	case "identifier":
		name := file.Text(left)
		if name == publicSurfaceName {
			ex.PublicSymbols = publicNames(file, right)
			break
		}
		if right == nil {
			// Bare annotation, nothing is bound.
			if _, ok := ex.byID[name]; !ok {
				break
			}
		}
		ex.declare(name, SymbolVariable, stmt, left)
	case "pattern_list", "tuple_pattern", "list_pattern":
		ex.patternTargets(file, stmt, left)
	case "attribute", "subscript":
		ex.mutation(file, stmt, left)
	}

	// a = b = 1
	if right != nil && right.Kind() == "assignment" {
		ex.assignment(file, stmt, right)
	}
}

func (ex *ModuleExports) patternTargets(file *treesitter.File, stmt, pattern *sitter.Node) {
	for _, target := range treesitter.NamedChildren(pattern) {
		switch target.Kind() {
		case "identifier":
			name := file.Text(target)
			if name != publicSurfaceName {
				ex.declare(name, SymbolVariable, stmt, target)
			}
		case "pattern_list", "tuple_pattern", "list_pattern":
			ex.patternTargets(file, stmt, target)
		case "list_splat_pattern":
			if id := treesitter.FindChildByType(target, "identifier"); id != nil {
				ex.declare(file.Text(id), SymbolVariable, stmt, id)
			}
		case "attribute", "subscript":
			ex.mutation(file, stmt, target)
		}
	}
}

func (ex *ModuleExports) augmentedAssignment(file *treesitter.File, stmt, asg *sitter.Node) {
	left := asg.ChildByFieldName("left")
	if left == nil {
		return
	}

	if left.Kind() != "identifier" {
		ex.mutation(file, stmt, left)
		return
	}

	name := file.Text(left)
	if name == publicSurfaceName {
		ex.PublicSymbols = append(ex.PublicSymbols, publicNames(file, asg.ChildByFieldName("right"))...)
		return
	}
	if s, ok := ex.byID[name]; ok && s.Kind == SymbolVariable {
		ex.appendSpan(s, stmt)
	}
}

// mutation attaches stmt to the variable at the base of target, if one exists.
// app.config(...), data["k"] = 1 and obj.attr += 1 all qualify.
func (ex *ModuleExports) mutation(file *treesitter.File, stmt, target *sitter.Node) {
	base := baseIdentifier(target)
	if base == nil {
		return
	}
	if s, ok := ex.byID[file.Text(base)]; ok && s.Kind == SymbolVariable {
		ex.appendSpan(s, stmt)
	}
}

// baseIdentifier follows attribute, subscript and call chains down to the
// identifier they start from.
func baseIdentifier(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "identifier":
			return node
		case "attribute":
			node = node.ChildByFieldName("object")
		case "subscript":
			node = node.ChildByFieldName("value")
		case "call":
			node = node.ChildByFieldName("function")
		default:
			return nil
		}
	}
	return nil
}

// publicNames reads the string elements of a list or tuple literal.
func publicNames(file *treesitter.File, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "list", "tuple", "parenthesized_expression":
	default:
		return nil
	}

	var names []string
	for _, elem := range treesitter.NamedChildren(node) {
		if elem.Kind() != "string" {
			continue
		}
		names = append(names, stringValue(file, elem))
	}
	return names
}

// stringValue returns the literal content of a simple string node.
func stringValue(file *treesitter.File, node *sitter.Node) string {
	var content string
	for _, child := range treesitter.NamedChildren(node) {
		if child.Kind() == "string_content" {
			content += file.Text(child)
		}
	}
	return content
}
