package python

import (
	"log"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/cache"
)

// ResolutionStep is a module that re-exports a name on the way to its origin.
type ResolutionStep struct {
	Module *Module
	Name   string
}

// ExternalBinding is a name a project module imports from outside the project.
// An empty Name means the external module itself is bound.
type ExternalBinding struct {
	Module string
	Name   string
}

// ResolvedItem is the origin of a name. A nil Symbol means the name is a module.
// Via lists the re-exporting modules passed through, outermost first.
// When External is set, Module is the project module holding the external
// import and Symbol is nil.
type ResolvedItem struct {
	Module   *Module
	Symbol   *Symbol
	Via      []ResolutionStep
	External *ExternalBinding
}

// IsExternal reports whether the name ends at an import from outside the project.
func (it *ResolvedItem) IsExternal() bool {
	return it.External != nil
}

func (it *ResolvedItem) through(m *Module, name string) *ResolvedItem {
	if it == nil {
		return nil
	}
	via := make([]ResolutionStep, 0, len(it.Via)+1)
	via = append(via, ResolutionStep{Module: m, Name: name})
	via = append(via, it.Via...)
	return &ResolvedItem{Module: it.Module, Symbol: it.Symbol, Via: via, External: it.External}
}

// ItemResolver follows import chains to the module or symbol that defines a name.
type ItemResolver struct {
	exports *ExportExtractor
	imports *ImportExtractor
	modules *ModuleResolver
	memo    *cache.Memo[string, *ResolvedItem]
}

// NewItemResolver creates an item resolver.
func NewItemResolver(exports *ExportExtractor, imports *ImportExtractor, modules *ModuleResolver) *ItemResolver {
	return &ItemResolver{
		exports: exports,
		imports: imports,
		modules: modules,
		memo:    cache.MustMemo[string, *ResolvedItem](cache.DefaultCapacity),
	}
}

type visitSet map[string]struct{}

// ResolveItem resolves name as an attribute of module. It returns nil when
// the name cannot be traced to a project module, including circular chains.
// Names a project module imports from an external package resolve to an
// external binding held by that module.
func (r *ItemResolver) ResolveItem(module *Module, name string) *ResolvedItem {
	if module == nil || name == "" {
		return nil
	}
	it, _ := r.memo.GetOrCompute(itemKey(module, name), func() (*ResolvedItem, error) {
		return r.resolve(module, name, make(visitSet)), nil
	})
	return it
}

func itemKey(module *Module, name string) string {
	return module.FullName + "\x00" + module.Path + "\x00" + name
}

func (r *ItemResolver) resolve(module *Module, name string, visited visitSet) *ResolvedItem {
	key := itemKey(module, name)
	if _, ok := visited[key]; ok {
		log.Printf("Warning: circular import while resolving %s in %s", name, module.Path)
		return nil
	}
	visited[key] = struct{}{}

	if module.HasFile() {
		if it, done := r.resolveInFile(module, name, visited); done {
			return it
		}
	}

	if child := module.Child(name); child != nil {
		return &ResolvedItem{Module: child}
	}
	return nil
}

// resolveInFile applies the declaration and import rules. done is false when
// the file has no opinion on name and submodules should be tried.
func (r *ItemResolver) resolveInFile(module *Module, name string, visited visitSet) (*ResolvedItem, bool) {
	exports, err := r.exports.GetSymbols(module.Path)
	if err != nil {
		return nil, false
	}
	if sym, ok := exports.Lookup(name); ok {
		return &ResolvedItem{Module: module, Symbol: sym}, true
	}
	if exports.HasPublicSurface() && !exports.InPublicSurface(name) {
		return nil, false
	}

	stmts, err := r.imports.GetImportStatements(module.Path)
	if err != nil {
		return nil, false
	}

	// Explicit from-imports; the last binding wins as it would at runtime.
	var (
		bound    bool
		resolved *ResolvedItem
	)
	for _, stmt := range stmts {
		if stmt.Kind != ImportFromSource {
			continue
		}
		member := stmt.Members[0]
		for _, item := range member.Items {
			if item.Name() != name {
				continue
			}
			bound = true
			resolved = r.resolveFromItem(module, member.Identifier, item.Identifier, visited)
		}
	}
	if bound {
		return resolved.through(module, name), true
	}

	for _, stmt := range stmts {
		if stmt.Kind != ImportFromSource || !stmt.Members[0].IsWildcard {
			continue
		}
		source := r.modules.ResolveModule(module, stmt.Source)
		if source == nil || !r.wildcardExposes(source, name) {
			continue
		}
		if it := r.resolve(source, name, visited); it != nil {
			return it.through(module, name), true
		}
	}

	for _, stmt := range stmts {
		if stmt.Kind != ImportDirect {
			continue
		}
		for _, member := range stmt.Members {
			if member.Name() != name {
				continue
			}
			bound = true
			if target := r.modules.ResolveModule(module, member.Identifier); target != nil {
				resolved = &ResolvedItem{Module: target}
			} else {
				resolved = &ResolvedItem{Module: module, External: &ExternalBinding{Module: member.Identifier}}
			}
		}
	}
	if bound {
		return resolved.through(module, name), true
	}

	return nil, false
}

// ResolveImportedItem resolves `from source import identifier` as written in from.
func (r *ItemResolver) ResolveImportedItem(from *Module, source, identifier string) *ResolvedItem {
	if src := r.modules.ResolveModule(from, source); src != nil {
		if it := r.ResolveItem(src, identifier); it != nil {
			return it
		}
	}
	if sub := r.modules.ResolveSubmodule(from, source, identifier); sub != nil {
		return &ResolvedItem{Module: sub}
	}
	return nil
}

func (r *ItemResolver) resolveFromItem(module *Module, source, identifier string, visited visitSet) *ResolvedItem {
	src := r.modules.ResolveModule(module, source)
	if src != nil {
		if it := r.resolve(src, identifier, visited); it != nil {
			return it
		}
	}
	if sub := r.modules.ResolveSubmodule(module, source, identifier); sub != nil {
		return &ResolvedItem{Module: sub}
	}
	if src == nil && !strings.HasPrefix(source, ".") {
		return &ResolvedItem{Module: module, External: &ExternalBinding{Module: source, Name: identifier}}
	}
	return nil
}

// wildcardExposes reports whether `from source import *` binds name.
func (r *ItemResolver) wildcardExposes(source *Module, name string) bool {
	if !source.HasFile() {
		return false
	}
	exports, err := r.exports.GetSymbols(source.Path)
	if err != nil {
		return false
	}
	if exports.HasPublicSurface() {
		return exports.InPublicSurface(name)
	}
	return true
}

// GetWildcardSymbols returns every name `from module import *` binds, mapped
// to its origin. Unresolvable names are omitted.
func (r *ItemResolver) GetWildcardSymbols(module *Module) map[string]*ResolvedItem {
	out := make(map[string]*ResolvedItem)
	r.collectWildcard(module, out, make(map[*Module]struct{}))
	return out
}

func (r *ItemResolver) collectWildcard(module *Module, out map[string]*ResolvedItem, seen map[*Module]struct{}) {
	if module == nil || !module.HasFile() {
		return
	}
	if _, ok := seen[module]; ok {
		return
	}
	seen[module] = struct{}{}

	exports, err := r.exports.GetSymbols(module.Path)
	if err != nil {
		return
	}

	add := func(name string) {
		if _, ok := out[name]; ok {
			return
		}
		if it := r.ResolveItem(module, name); it != nil {
			out[name] = it
		}
	}

	if exports.HasPublicSurface() {
		for _, name := range exports.PublicSymbols {
			add(name)
		}
		return
	}

	for _, sym := range exports.Symbols {
		out[sym.ID] = &ResolvedItem{Module: module, Symbol: sym}
	}

	stmts, err := r.imports.GetImportStatements(module.Path)
	if err != nil {
		return
	}
	for _, stmt := range stmts {
		for _, member := range stmt.Members {
			switch {
			case stmt.Kind == ImportDirect:
				add(member.Name())
			case member.IsWildcard:
				nested := make(map[string]*ResolvedItem)
				r.collectWildcard(r.modules.ResolveModule(module, stmt.Source), nested, seen)
				for _, name := range WildcardNames(nested) {
					add(name)
				}
			default:
				for _, item := range member.Items {
					add(item.Name())
				}
			}
		}
	}
}

// WildcardNames returns the keys of a wildcard map in sorted order.
func WildcardNames(items map[string]*ResolvedItem) []string {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
