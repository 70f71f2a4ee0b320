package python

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/manifest"
	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Extractor prunes a project down to a closure of symbols.
type Extractor struct {
	version string
	parser  *treesitter.Parser
}

// NewExtractor creates an extractor resolving against the given Python version.
func NewExtractor(version string) *Extractor {
	return &Extractor{
		version: version,
		parser:  treesitter.NewPythonParser(),
	}
}

// Extract returns the files of keep with every unkept symbol removed, invalid
// and unused imports dropped, and no syntax errors left.
func (x *Extractor) Extract(ctx context.Context, sources map[string][]byte, keep manifest.KeepSet) (map[string][]byte, error) {
	original, err := NewAnalysis(ctx, sources, x.version)
	if err != nil {
		return nil, err
	}
	defer original.Close()

	pruned, err := x.prune(original, keep)
	if err != nil {
		return nil, err
	}
	x.repairAll(pruned)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := x.removeInvalidImports(ctx, original, pruned); err != nil {
		return nil, err
	}
	x.repairAll(pruned)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := x.removeUnusedImports(ctx, pruned); err != nil {
		return nil, err
	}
	x.repairAll(pruned)

	return pruned, nil
}

// prune deletes the definition spans of every symbol keep does not list.
func (x *Extractor) prune(a *Analysis, keep manifest.KeepSet) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keep))

	for path, symbols := range keep {
		file, ok := a.Files.Get(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		exports, err := a.Exports.GetSymbols(path)
		if err != nil {
			return nil, err
		}

		var kept []*sitter.Node
		for _, sym := range exports.Symbols {
			if _, ok := symbols[sym.ID]; ok {
				kept = append(kept, sym.Nodes...)
			}
		}

		var edits []edit
		for _, sym := range exports.Symbols {
			if _, ok := symbols[sym.ID]; ok {
				continue
			}
			for _, node := range sym.Nodes {
				// a = b = 1 belongs to both a and b.
				if sharesNode(kept, node) {
					continue
				}
				edits = append(edits, deleteNode(file.Source, node))
			}
		}
		out[path] = applyEdits(file.Source, edits)
	}
	return out, nil
}

func sharesNode(nodes []*sitter.Node, node *sitter.Node) bool {
	for _, n := range nodes {
		if treesitter.SameNode(n, node) {
			return true
		}
	}
	return false
}

func (x *Extractor) repairAll(files map[string][]byte) {
	for path, src := range files {
		files[path] = x.repair(path, src)
	}
}

// repair deletes the first error node until the source parses cleanly.
// Each pass strictly shrinks the source, so the loop terminates.
func (x *Extractor) repair(path string, src []byte) []byte {
	for {
		file, err := x.parser.Parse(path, src)
		if err != nil {
			log.Printf("Warning: cannot repair %s: %v", path, err)
			return src
		}

		root := file.Root()
		if !root.HasError() {
			file.Close()
			return src
		}

		var start, end uint
		if bad := treesitter.FirstError(root); bad != nil && bad.EndByte() > bad.StartByte() {
			start, end = statementSpan(src, bad.StartByte(), bad.EndByte())
		} else {
			at := root.StartByte()
			if bad != nil {
				at = bad.StartByte()
			} else if missing := treesitter.FirstMissing(root); missing != nil {
				at = missing.StartByte()
			}
			start, end = lineOf(src, at)
		}
		file.Close()

		if end <= start {
			log.Printf("Warning: %s still has syntax errors after repair", path)
			return src
		}
		src = applyEdits(src, []edit{{start: start, end: end}})
	}
}

// removeInvalidImports drops imports that resolved inside the project before
// pruning and no longer resolve among the pruned files.
func (x *Extractor) removeInvalidImports(ctx context.Context, original *Analysis, files map[string][]byte) error {
	fresh, err := NewAnalysis(ctx, files, x.version)
	if err != nil {
		return err
	}
	defer fresh.Close()

	for _, path := range fresh.Files.Paths() {
		file, _ := fresh.Files.Get(path)
		before, err := original.Modules.GetModuleFromFilePath(path)
		if err != nil {
			return err
		}
		after, err := fresh.Modules.GetModuleFromFilePath(path)
		if err != nil {
			return err
		}
		stmts, err := fresh.Imports.GetImportStatements(path)
		if err != nil {
			return err
		}

		edits := rewriteImports(file, stmts, importFilter{
			member: func(stmt ImportStatement, m ImportMember) bool {
				text := m.Identifier
				if stmt.Kind == ImportFromSource {
					text = stmt.Source
				}
				if original.Modules.ResolveModule(before, text) == nil {
					return true
				}
				return fresh.Modules.ResolveModule(after, text) != nil
			},
			item: func(stmt ImportStatement, _ ImportMember, item ImportItem) bool {
				if original.Items.ResolveImportedItem(before, stmt.Source, item.Identifier) == nil {
					return true
				}
				return fresh.Items.ResolveImportedItem(after, stmt.Source, item.Identifier) != nil
			},
		})
		files[path] = applyEdits(file.Source, edits)
	}
	return nil
}

// removeUnusedImports drops import bindings nothing references. Wildcards,
// names listed in __all__ and names other files import through this file are kept.
func (x *Extractor) removeUnusedImports(ctx context.Context, files map[string][]byte) error {
	a, err := NewAnalysis(ctx, files, x.version)
	if err != nil {
		return err
	}
	defer a.Close()

	reexported, err := reexportedNames(a)
	if err != nil {
		return err
	}

	for _, path := range a.Files.Paths() {
		file, _ := a.Files.Get(path)
		stmts, err := a.Imports.GetImportStatements(path)
		if err != nil {
			return err
		}
		exports, err := a.Exports.GetSymbols(path)
		if err != nil {
			return err
		}
		scope := Scope{File: file, Exclude: importNodes(stmts)}

		needed := func(name string) bool {
			if _, ok := reexported[path][name]; ok {
				return true
			}
			return exports.InPublicSurface(name) || a.Usage.IsNameUsed(scope, name)
		}

		edits := rewriteImports(file, stmts, importFilter{
			member: func(stmt ImportStatement, m ImportMember) bool {
				if m.IsWildcard {
					return true
				}
				if m.Alias != "" {
					return needed(m.Alias)
				}
				// import a.b binds a.
				head, _, _ := strings.Cut(m.Identifier, ".")
				return needed(head) || needed(m.Identifier)
			},
			item: func(_ ImportStatement, _ ImportMember, item ImportItem) bool {
				return needed(item.Name())
			},
		})
		files[path] = applyEdits(file.Source, edits)
	}
	return nil
}

// reexportedNames maps a file path to the import bindings in it that other
// files reach through.
func reexportedNames(a *Analysis) (map[string]map[string]struct{}, error) {
	out := make(map[string]map[string]struct{})
	mark := func(via []ResolutionStep) {
		for _, step := range via {
			names, ok := out[step.Module.Path]
			if !ok {
				names = make(map[string]struct{})
				out[step.Module.Path] = names
			}
			names[step.Name] = struct{}{}
		}
	}

	for _, path := range a.Files.Paths() {
		file, _ := a.Files.Get(path)
		module, err := a.Modules.GetModuleFromFilePath(path)
		if err != nil {
			return nil, err
		}
		stmts, err := a.Imports.GetImportStatements(path)
		if err != nil {
			return nil, err
		}
		scope := Scope{File: file, Exclude: importNodes(stmts)}

		for _, stmt := range stmts {
			switch {
			case stmt.Kind == ImportDirect:
				for _, m := range stmt.Members {
					if target := a.Modules.ResolveModule(module, m.Identifier); target != nil {
						markAttributes(a, scope, target, m.Name(), mark)
					}
				}
			case stmt.Members[0].IsWildcard:
				source := a.Modules.ResolveModule(module, stmt.Source)
				if source == nil {
					continue
				}
				wildcard := a.Items.GetWildcardSymbols(source)
				for _, name := range WildcardNames(wildcard) {
					mark(wildcard[name].Via)
				}
			default:
				for _, item := range stmt.Members[0].Items {
					if it := a.Items.ResolveImportedItem(module, stmt.Source, item.Identifier); it != nil {
						mark(it.Via)
					}
				}
			}
		}
	}
	return out, nil
}

// markAttributes marks the re-exports of target reached as ref.name in scope.
func markAttributes(a *Analysis, scope Scope, target *Module, ref string, mark func([]ResolutionStep)) {
	if !target.HasFile() {
		return
	}
	stmts, err := a.Imports.GetImportStatements(target.Path)
	if err != nil {
		return
	}

	var names []string
	for _, stmt := range stmts {
		if stmt.Kind != ImportFromSource {
			continue
		}
		for _, item := range stmt.Members[0].Items {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if !a.Usage.IsNameUsed(scope, ref+"."+name) {
			continue
		}
		if it := a.Items.ResolveItem(target, name); it != nil {
			mark(it.Via)
		}
	}
}
