package python

import (
	"github.com/mvp-joe/depsplit/internal/cache"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Scope is the part of a file searched for references. A nil Nodes means
// the whole file. References inside Exclude never count.
type Scope struct {
	File    *treesitter.File
	Nodes   []*sitter.Node
	Exclude []*sitter.Node
}

// InternalUsage records a project module and the symbols used from it.
type InternalUsage struct {
	Module  *Module
	Symbols map[string]struct{}
}

// InternalUsageMap is keyed by module path.
type InternalUsageMap map[string]*InternalUsage

func (u InternalUsageMap) addModule(m *Module) *InternalUsage {
	if entry, ok := u[m.Path]; ok {
		return entry
	}
	entry := &InternalUsage{Module: m, Symbols: make(map[string]struct{})}
	u[m.Path] = entry
	return entry
}

func (u InternalUsageMap) addSymbol(m *Module, symbol string) {
	u.addModule(m).Symbols[symbol] = struct{}{}
}

func (u InternalUsageMap) addVia(via []ResolutionStep) {
	for _, step := range via {
		u.addModule(step.Module)
	}
}

// ExternalUsageMap maps an external module name to the names used from it.
type ExternalUsageMap map[string]map[string]struct{}

func (u ExternalUsageMap) add(module, name string) {
	names, ok := u[module]
	if !ok {
		names = make(map[string]struct{})
		u[module] = names
	}
	if name != "" {
		names[name] = struct{}{}
	}
}

// referenceIndex maps reference text to the identifier and attribute nodes spelling it.
type referenceIndex map[string][]*sitter.Node

// UsageResolver decides whether names are referenced inside a scope.
type UsageResolver struct {
	exports *ExportExtractor
	imports *ImportExtractor
	items   *ItemResolver
	indexes *cache.Memo[string, referenceIndex]
}

// NewUsageResolver creates a usage resolver.
func NewUsageResolver(exports *ExportExtractor, imports *ImportExtractor, items *ItemResolver) *UsageResolver {
	return &UsageResolver{
		exports: exports,
		imports: imports,
		items:   items,
		indexes: cache.MustMemo[string, referenceIndex](cache.DefaultCapacity),
	}
}

// IsNameUsed reports whether name is referenced in scope.
func (u *UsageResolver) IsNameUsed(scope Scope, name string) bool {
	return len(u.references(scope, name)) > 0
}

// ResolveInternalUsageForSymbol records symbol as used from module when
// lookupRef is referenced in scope. Re-exporting modules in via are recorded
// as symbol-less usages.
func (u *UsageResolver) ResolveInternalUsageForSymbol(scope Scope, module *Module, symbol *Symbol, lookupRef string, via []ResolutionStep, usage InternalUsageMap) bool {
	if !u.IsNameUsed(scope, lookupRef) {
		return false
	}
	usage.addSymbol(module, symbol.ID)
	usage.addVia(via)
	return true
}

// ResolveInternalUsageForModule records module as used when lookupRef is
// referenced in scope, then attributes `lookupRef.name` references to the
// module's symbols, its re-exported names and its submodules.
func (u *UsageResolver) ResolveInternalUsageForModule(scope Scope, module *Module, lookupRef string, via []ResolutionStep, usage InternalUsageMap) bool {
	if !u.IsNameUsed(scope, lookupRef) {
		return false
	}
	usage.addModule(module)
	usage.addVia(via)

	if module.HasFile() {
		u.resolveModuleAttributes(scope, module, lookupRef, usage)
	}

	for _, child := range module.SortedChildren() {
		u.ResolveInternalUsageForModule(scope, child, lookupRef+"."+child.Name, nil, usage)
	}
	return true
}

func (u *UsageResolver) resolveModuleAttributes(scope Scope, module *Module, lookupRef string, usage InternalUsageMap) {
	exports, err := u.exports.GetSymbols(module.Path)
	if err != nil {
		return
	}
	for _, sym := range exports.Symbols {
		u.ResolveInternalUsageForSymbol(scope, module, sym, lookupRef+"."+sym.ID, nil, usage)
	}

	stmts, err := u.imports.GetImportStatements(module.Path)
	if err != nil {
		return
	}
	for _, stmt := range stmts {
		if stmt.Kind != ImportFromSource {
			continue
		}
		for _, item := range stmt.Members[0].Items {
			ref := lookupRef + "." + item.Name()
			if _, own := exports.Lookup(item.Name()); own || !u.IsNameUsed(scope, ref) {
				continue
			}
			it := u.items.ResolveItem(module, item.Name())
			switch {
			case it == nil:
			case it.IsExternal():
				usage.addModule(it.Module)
				usage.addVia(it.Via)
			case it.Symbol != nil:
				u.ResolveInternalUsageForSymbol(scope, it.Module, it.Symbol, ref, it.Via, usage)
			default:
				u.ResolveInternalUsageForModule(scope, it.Module, ref, it.Via, usage)
			}
		}
	}
}

// ResolveExternalUsageForItem records external usage of moduleName when
// lookupRef is referenced in scope. With an empty itemName the attributes
// accessed on lookupRef are recorded instead.
func (u *UsageResolver) ResolveExternalUsageForItem(scope Scope, moduleName, itemName, lookupRef string, usage ExternalUsageMap) bool {
	refs := u.references(scope, lookupRef)
	if len(refs) == 0 {
		return false
	}

	if itemName != "" {
		usage.add(moduleName, itemName)
		return true
	}

	usage.add(moduleName, "")
	for _, ref := range refs {
		parent := ref.Parent()
		if parent == nil || parent.Kind() != "attribute" {
			continue
		}
		if !treesitter.SameNode(parent.ChildByFieldName("object"), ref) {
			continue
		}
		if attr := parent.ChildByFieldName("attribute"); attr != nil {
			usage.add(moduleName, scope.File.Text(attr))
		}
	}
	return true
}

func (u *UsageResolver) references(scope Scope, name string) []*sitter.Node {
	idx := u.index(scope.File)

	var refs []*sitter.Node
	for _, node := range idx[name] {
		if scope.Nodes != nil && !treesitter.ContainedInAny(scope.Nodes, node) {
			continue
		}
		if treesitter.ContainedInAny(scope.Exclude, node) {
			continue
		}
		refs = append(refs, node)
	}
	return refs
}

func (u *UsageResolver) index(file *treesitter.File) referenceIndex {
	idx, _ := u.indexes.GetOrCompute(file.Path, func() (referenceIndex, error) {
		return buildReferenceIndex(file), nil
	})
	return idx
}

func buildReferenceIndex(file *treesitter.File) referenceIndex {
	idx := make(referenceIndex)
	treesitter.WalkTree(file.Root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "identifier":
			if isReference(n) {
				text := file.Text(n)
				idx[text] = append(idx[text], n)
			}
		case "attribute":
			text := compact(file.Text(n))
			idx[text] = append(idx[text], n)
		}
		return true
	})
	return idx
}

// isReference filters out identifiers that name something rather than use it:
// definition names, parameters, keyword argument names and the attribute half of obj.attr.
func isReference(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return true
	}

	switch parent.Kind() {
	case "attribute":
		return !treesitter.SameNode(parent.ChildByFieldName("attribute"), n)
	case "keyword_argument", "function_definition", "class_definition",
		"default_parameter", "typed_default_parameter":
		return !treesitter.SameNode(parent.ChildByFieldName("name"), n)
	case "typed_parameter":
		return treesitter.Contains(parent.ChildByFieldName("type"), n)
	case "parameters", "lambda_parameters", "dotted_name", "aliased_import":
		return false
	}
	return true
}
