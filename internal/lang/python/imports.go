package python

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/depsplit/internal/cache"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ImportKind distinguishes `import x` from `from x import y`.
type ImportKind string

const (
	ImportDirect     ImportKind = "direct"
	ImportFromSource ImportKind = "from"
)

// ImportItem is one name imported by a from-import.
type ImportItem struct {
	Identifier string
	Alias      string
	Node       *sitter.Node
}

// Name returns the name the item binds locally.
func (i ImportItem) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Identifier
}

// ImportMember is a module named by an import statement. For from-imports it
// is the source module and carries the imported items.
type ImportMember struct {
	Identifier string
	Alias      string
	IsWildcard bool
	Items      []ImportItem
	Node       *sitter.Node
}

// Name returns the reference the member binds locally.
func (m ImportMember) Name() string {
	if m.Alias != "" {
		return m.Alias
	}
	return m.Identifier
}

// ImportStatement is a normalized import statement.
// Direct imports have one member per module; from-imports have exactly one.
type ImportStatement struct {
	Kind    ImportKind
	Source  string
	Node    *sitter.Node
	Members []ImportMember
}

// IsRelative reports whether the statement imports from a relative source.
func (s ImportStatement) IsRelative() bool {
	return strings.HasPrefix(s.Source, ".")
}

// ImportExtractor decomposes the import statements of parsed files.
type ImportExtractor struct {
	files *treesitter.FileSet
	memo  *cache.Memo[string, []ImportStatement]
}

// NewImportExtractor creates an extractor over files.
func NewImportExtractor(files *treesitter.FileSet) *ImportExtractor {
	return &ImportExtractor{
		files: files,
		memo:  cache.MustMemo[string, []ImportStatement](files.Len() + 1),
	}
}

// GetImportStatements returns every import statement of filePath in source
// order, including imports nested in functions and classes.
func (e *ImportExtractor) GetImportStatements(filePath string) ([]ImportStatement, error) {
	return e.memo.GetOrCompute(filePath, func() ([]ImportStatement, error) {
		file, ok := e.files.Get(filePath)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return extractImports(file)
	})
}

func extractImports(file *treesitter.File) ([]ImportStatement, error) {
	var (
		stmts []ImportStatement
		err   error
	)

	treesitter.WalkTree(file.Root(), func(n *sitter.Node) bool {
		if err != nil {
			return false
		}

		var stmt ImportStatement
		switch n.Kind() {
		case "import_statement":
			stmt, err = directImport(file, n)
		case "import_from_statement":
			stmt, err = fromImport(file, n)
		default:
			return true
		}
		if err == nil {
			stmts = append(stmts, stmt)
		}
		return false
	})

	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}
	return stmts, nil
}

func directImport(file *treesitter.File, node *sitter.Node) (ImportStatement, error) {
	stmt := ImportStatement{Kind: ImportDirect, Node: node}

	for _, child := range treesitter.NamedChildren(node) {
		if child.IsError() {
			continue
		}
		ident, alias, err := importName(file, child)
		if err != nil {
			return stmt, err
		}
		stmt.Members = append(stmt.Members, ImportMember{
			Identifier: ident,
			Alias:      alias,
			Node:       child,
		})
	}

	if len(stmt.Members) == 0 {
		return stmt, fmt.Errorf("%w: import statement without names at line %d",
			ErrMalformedStructure, node.StartPosition().Row+1)
	}
	return stmt, nil
}

func fromImport(file *treesitter.File, node *sitter.Node) (ImportStatement, error) {
	source := node.ChildByFieldName("module_name")
	if source == nil {
		return ImportStatement{}, fmt.Errorf("%w: from-import without module at line %d",
			ErrMalformedStructure, node.StartPosition().Row+1)
	}

	member := ImportMember{
		Identifier: compact(file.Text(source)),
		Node:       source,
	}

	for _, child := range treesitter.NamedChildren(node) {
		if child.IsError() || treesitter.SameNode(child, source) {
			continue
		}
		if child.Kind() == "wildcard_import" {
			member.IsWildcard = true
			continue
		}
		ident, alias, err := importName(file, child)
		if err != nil {
			return ImportStatement{}, err
		}
		member.Items = append(member.Items, ImportItem{
			Identifier: ident,
			Alias:      alias,
			Node:       child,
		})
	}

	if !member.IsWildcard && len(member.Items) == 0 {
		return ImportStatement{}, fmt.Errorf("%w: from-import without names at line %d",
			ErrMalformedStructure, node.StartPosition().Row+1)
	}

	return ImportStatement{
		Kind:    ImportFromSource,
		Source:  member.Identifier,
		Node:    node,
		Members: []ImportMember{member},
	}, nil
}

// importName splits a dotted_name or aliased_import into identifier and alias.
func importName(file *treesitter.File, node *sitter.Node) (string, string, error) {
	switch node.Kind() {
	case "dotted_name":
		return compact(file.Text(node)), "", nil
	case "aliased_import":
		name := node.ChildByFieldName("name")
		if name == nil {
			return "", "", fmt.Errorf("%w: aliased import without name at line %d",
				ErrMalformedStructure, node.StartPosition().Row+1)
		}
		alias := node.ChildByFieldName("alias")
		return compact(file.Text(name)), file.Text(alias), nil
	}
	return "", "", fmt.Errorf("%w: unexpected %s in import at line %d",
		ErrMalformedStructure, node.Kind(), node.StartPosition().Row+1)
}

// compact removes whitespace from dotted import paths.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
