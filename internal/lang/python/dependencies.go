package python

import (
	"fmt"
	"sort"

	"github.com/mvp-joe/depsplit/internal/cache"
	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language is the manifest language tag for Python files.
const Language = "python"

// DependencyResolver builds the forward dependency edges of files and their symbols.
type DependencyResolver struct {
	files   *treesitter.FileSet
	exports *ExportExtractor
	imports *ImportExtractor
	modules *ModuleResolver
	items   *ItemResolver
	usage   *UsageResolver
	metrics MetricsAnalyzer
	memo    *cache.Memo[string, *manifest.FileManifest]
}

// NewDependencyResolver wires the resolvers of one analysis together.
func NewDependencyResolver(files *treesitter.FileSet, exports *ExportExtractor, imports *ImportExtractor,
	modules *ModuleResolver, items *ItemResolver, usage *UsageResolver) *DependencyResolver {
	return &DependencyResolver{
		files:   files,
		exports: exports,
		imports: imports,
		modules: modules,
		items:   items,
		usage:   usage,
		memo:    cache.MustMemo[string, *manifest.FileManifest](files.Len() + 1),
	}
}

// GetFileDependencies returns the manifest entry of filePath without dependents.
func (d *DependencyResolver) GetFileDependencies(filePath string) (*manifest.FileManifest, error) {
	return d.memo.GetOrCompute(filePath, func() (*manifest.FileManifest, error) {
		return d.fileDependencies(filePath)
	})
}

func (d *DependencyResolver) fileDependencies(filePath string) (*manifest.FileManifest, error) {
	file, ok := d.files.Get(filePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	module, err := d.modules.GetModuleFromFilePath(filePath)
	if err != nil {
		return nil, err
	}
	exports, err := d.exports.GetSymbols(filePath)
	if err != nil {
		return nil, err
	}
	stmts, err := d.imports.GetImportStatements(filePath)
	if err != nil {
		return nil, err
	}
	exclude := importNodes(stmts)

	fm := manifest.NewFileManifest(filePath, Language)
	fm.Metrics = d.metrics.Analyze(file, []*sitter.Node{file.Root()})
	fm.Dependencies = d.resolveScope(module, Scope{File: file, Exclude: exclude}, stmts)

	for _, sym := range exports.Symbols {
		sm := manifest.NewSymbolManifest(sym.ID, string(sym.Kind))
		sm.Metrics = d.metrics.Analyze(file, sym.Nodes)

		scope := Scope{File: file, Nodes: sym.Nodes, Exclude: exclude}
		sm.Dependencies = d.resolveScope(module, scope, symbolImports(sym, exports.Symbols, stmts))

		for _, other := range exports.Symbols {
			if other == sym || !d.usage.IsNameUsed(scope, other.ID) {
				continue
			}
			dep, ok := sm.Dependencies[filePath]
			if !ok {
				dep = manifest.NewDependency(filePath, false)
				sm.Dependencies[filePath] = dep
			}
			dep.AddSymbol(other.ID)
		}

		fm.Symbols[sym.ID] = sm
	}

	return fm, nil
}

// resolveScope turns the imports visible in scope into dependency edges.
func (d *DependencyResolver) resolveScope(module *Module, scope Scope, stmts []ImportStatement) map[string]*manifest.Dependency {
	internal := make(InternalUsageMap)
	external := make(ExternalUsageMap)

	for _, stmt := range wildcardsLast(stmts) {
		switch stmt.Kind {
		case ImportDirect:
			for _, member := range stmt.Members {
				if target := d.modules.ResolveModule(module, member.Identifier); target != nil {
					d.usage.ResolveInternalUsageForModule(scope, target, member.Name(), nil, internal)
				} else {
					d.usage.ResolveExternalUsageForItem(scope, member.Identifier, "", member.Name(), external)
				}
			}

		case ImportFromSource:
			member := stmt.Members[0]
			source := d.modules.ResolveModule(module, stmt.Source)

			if member.IsWildcard {
				if source == nil {
					continue
				}
				wildcard := d.items.GetWildcardSymbols(source)
				for _, name := range WildcardNames(wildcard) {
					d.useItem(scope, wildcard[name], name, internal, external)
				}
				continue
			}

			for _, item := range member.Items {
				if it := d.items.ResolveImportedItem(module, stmt.Source, item.Identifier); it != nil {
					d.useItem(scope, it, item.Name(), internal, external)
					continue
				}
				if source == nil && !stmt.IsRelative() {
					d.usage.ResolveExternalUsageForItem(scope, stmt.Source, item.Identifier, item.Name(), external)
				}
			}
		}
	}

	return edges(module, internal, external)
}

// useItem records the usage of a resolved name. A name re-exported from an
// external package depends on both the re-exporting files and the package.
func (d *DependencyResolver) useItem(scope Scope, it *ResolvedItem, lookupRef string, usage InternalUsageMap, external ExternalUsageMap) {
	if it.IsExternal() {
		if d.usage.ResolveExternalUsageForItem(scope, it.External.Module, it.External.Name, lookupRef, external) {
			usage.addModule(it.Module)
			usage.addVia(it.Via)
		}
		return
	}
	if it.Symbol != nil {
		d.usage.ResolveInternalUsageForSymbol(scope, it.Module, it.Symbol, lookupRef, it.Via, usage)
		return
	}
	d.usage.ResolveInternalUsageForModule(scope, it.Module, lookupRef, it.Via, usage)
}

func edges(module *Module, internal InternalUsageMap, external ExternalUsageMap) map[string]*manifest.Dependency {
	deps := make(map[string]*manifest.Dependency, len(internal)+len(external))

	for path, usage := range internal {
		if path == module.Path {
			continue
		}
		dep := manifest.NewDependency(path, false)
		dep.IsNamespace = !usage.Module.HasFile()
		for name := range usage.Symbols {
			dep.AddSymbol(name)
		}
		deps[path] = dep
	}

	for name, used := range external {
		dep := manifest.NewDependency(name, true)
		for item := range used {
			dep.AddSymbol(item)
		}
		deps[name] = dep
	}
	return deps
}

// wildcardsLast orders explicit imports before wildcard imports, keeping source order otherwise.
func wildcardsLast(stmts []ImportStatement) []ImportStatement {
	ordered := append([]ImportStatement(nil), stmts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !isWildcard(ordered[i]) && isWildcard(ordered[j])
	})
	return ordered
}

func isWildcard(stmt ImportStatement) bool {
	return stmt.Kind == ImportFromSource && stmt.Members[0].IsWildcard
}

// symbolImports keeps the imports that start before sym ends and are not
// nested inside another symbol.
func symbolImports(sym *Symbol, symbols []*Symbol, stmts []ImportStatement) []ImportStatement {
	var end uint
	for _, n := range sym.Nodes {
		if n.EndByte() > end {
			end = n.EndByte()
		}
	}

	var out []ImportStatement
	for _, stmt := range stmts {
		if stmt.Node.StartByte() >= end {
			continue
		}
		if nestedInOther(stmt.Node, sym, symbols) {
			continue
		}
		out = append(out, stmt)
	}
	return out
}

func nestedInOther(node *sitter.Node, sym *Symbol, symbols []*Symbol) bool {
	for _, other := range symbols {
		if other != sym && treesitter.ContainedInAny(other.Nodes, node) {
			return true
		}
	}
	return false
}

func importNodes(stmts []ImportStatement) []*sitter.Node {
	nodes := make([]*sitter.Node, 0, len(stmts))
	for _, stmt := range stmts {
		nodes = append(nodes, stmt.Node)
	}
	return nodes
}
