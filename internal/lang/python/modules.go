package python

import (
	"fmt"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/cache"
)

const packageInitializer = "__init__.py"

// ModuleKind classifies nodes of the module tree.
type ModuleKind string

const (
	ModuleKindModule    ModuleKind = "module"
	ModuleKindPackage   ModuleKind = "package"
	ModuleKindNamespace ModuleKind = "namespace"
)

// Module is a node of the project module tree. Path is the file backing the
// module, or the directory for namespace modules.
type Module struct {
	Name     string
	FullName string
	Path     string
	Kind     ModuleKind
	Children map[string]*Module

	// parent is a non-owning back reference; nil for the root.
	parent *Module
}

// Parent returns the enclosing module, or nil for the root.
func (m *Module) Parent() *Module {
	return m.parent
}

// HasFile reports whether the module is backed by a source file.
func (m *Module) HasFile() bool {
	return m.Kind != ModuleKindNamespace
}

// Child returns the direct child called name.
func (m *Module) Child(name string) *Module {
	return m.Children[name]
}

// SortedChildren returns children ordered by name.
func (m *Module) SortedChildren() []*Module {
	names := make([]string, 0, len(m.Children))
	for name := range m.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	children := make([]*Module, 0, len(names))
	for _, name := range names {
		children = append(children, m.Children[name])
	}
	return children
}

// descend follows parts as a chain of exact child lookups.
func (m *Module) descend(parts []string) *Module {
	cur := m
	for _, part := range parts {
		if cur = cur.Children[part]; cur == nil {
			return nil
		}
	}
	return cur
}

func (m *Module) child(name string) *Module {
	if c, ok := m.Children[name]; ok {
		return c
	}

	fullName := name
	if m.FullName != "" {
		fullName = m.FullName + "." + name
	}
	dir := name
	if parentDir := m.dirPath(); parentDir != "" {
		dir = parentDir + "/" + name
	}

	c := &Module{
		Name:     name,
		FullName: fullName,
		Path:     dir,
		Kind:     ModuleKindNamespace,
		Children: make(map[string]*Module),
		parent:   m,
	}
	m.Children[name] = c
	return c
}

// dirPath is the directory the module's children live in.
func (m *Module) dirPath() string {
	if m.parent == nil {
		return ""
	}
	parentDir := m.parent.dirPath()
	if parentDir == "" {
		return m.Name
	}
	return parentDir + "/" + m.Name
}

// ModuleResolver maps file paths onto the module tree and resolves import text to modules.
type ModuleResolver struct {
	root   *Module
	byPath map[string]*Module
	stdlib map[string]struct{}
	memo   *cache.Memo[string, *Module]
}

// NewModuleResolver builds the module tree for paths. Paths use forward
// slashes and are relative to the project root; non-Python paths are ignored.
func NewModuleResolver(paths []string, version string) *ModuleResolver {
	stdlib, _ := StdlibModules(version)

	r := &ModuleResolver{
		root: &Module{
			Kind:     ModuleKindNamespace,
			Children: make(map[string]*Module),
		},
		byPath: make(map[string]*Module),
		stdlib: stdlib,
		memo:   cache.MustMemo[string, *Module](cache.DefaultCapacity),
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for _, p := range sorted {
		r.add(p)
	}
	return r
}

func (r *ModuleResolver) add(filePath string) {
	if !strings.HasSuffix(filePath, ".py") {
		return
	}

	dir, base := path.Split(filePath)
	cur := r.root
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part != "" {
			cur = cur.child(part)
		}
	}

	if base == packageInitializer {
		cur.Kind = ModuleKindPackage
		cur.Path = filePath
		r.byPath[filePath] = cur
		return
	}

	node := cur.child(strings.TrimSuffix(base, ".py"))
	if node.Kind == ModuleKindPackage {
		log.Printf("Warning: %s is shadowed by package %s", filePath, node.Path)
		r.byPath[filePath] = node
		return
	}
	node.Kind = ModuleKindModule
	node.Path = filePath
	r.byPath[filePath] = node
}

// Root returns the unnamed project root.
func (r *ModuleResolver) Root() *Module {
	return r.root
}

// IsStdlib reports whether name is a standard library module.
func (r *ModuleResolver) IsStdlib(name string) bool {
	_, ok := r.stdlib[name]
	return ok
}

// GetModuleFromFilePath returns the module backed by filePath.
func (r *ModuleResolver) GetModuleFromFilePath(filePath string) (*Module, error) {
	m, ok := r.byPath[filePath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, filePath)
	}
	return m, nil
}

// ResolveModule resolves import text as seen from the module from. It returns
// nil for standard library, unknown and self imports.
func (r *ModuleResolver) ResolveModule(from *Module, importText string) *Module {
	if from == nil || importText == "" {
		return nil
	}

	m, _ := r.memo.GetOrCompute(from.FullName+"\x00"+importText, func() (*Module, error) {
		var target *Module
		if strings.HasPrefix(importText, ".") {
			target = r.resolveRelative(from, importText)
		} else {
			target = r.resolveAbsolute(from, importText)
		}
		if target == from {
			return nil, nil
		}
		return target, nil
	})
	return m
}

// ResolveSubmodule resolves `from source import name` where name is a
// submodule of source rather than an attribute of it.
func (r *ModuleResolver) ResolveSubmodule(from *Module, source, name string) *Module {
	text := source + "." + name
	if strings.HasSuffix(source, ".") {
		text = source + name
	}
	return r.ResolveModule(from, text)
}

func (r *ModuleResolver) resolveRelative(from *Module, importText string) *Module {
	rest := strings.TrimLeft(importText, ".")
	level := len(importText) - len(rest)

	base := from
	if from.Kind != ModuleKindPackage {
		base = from.parent
	}
	for i := 1; i < level && base != nil; i++ {
		base = base.parent
	}
	if base == nil {
		return nil
	}

	if rest == "" {
		return base
	}
	return base.descend(strings.Split(rest, "."))
}

func (r *ModuleResolver) resolveAbsolute(from *Module, importText string) *Module {
	if r.IsStdlib(importText) {
		return nil
	}

	parts := strings.Split(importText, ".")
	start := from
	if from.Kind != ModuleKindPackage {
		start = from.parent
	}
	for anc := start; anc != nil; anc = anc.parent {
		if m := anc.descend(parts); m != nil {
			return m
		}
	}
	return nil
}
