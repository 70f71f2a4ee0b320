package manifest

import "sort"

// GenerateDependents inverts every internal dependency edge into a dependent
// edge on its target and recomputes dependency/dependent counts.
// Existing dependents are discarded first, so the pass is idempotent.
func (m Manifest) GenerateDependents() {
	for _, file := range m {
		file.Dependents = make(map[string]*Dependent)
		for _, sym := range file.Symbols {
			sym.Dependents = make(map[string]*Dependent)
		}
	}

	for _, fileID := range m.FilePaths() {
		file := m[fileID]

		for _, dep := range file.Dependencies {
			if dep.IsExternal || dep.ID == fileID {
				continue
			}
			target, ok := m[dep.ID]
			if !ok {
				continue
			}
			target.dependent(fileID)
			for name := range dep.Symbols {
				if sym, ok := target.Symbols[name]; ok {
					sym.dependent(fileID)
				}
			}
		}

		for symID, sym := range file.Symbols {
			for _, dep := range sym.Dependencies {
				if dep.IsExternal {
					continue
				}
				target, ok := m[dep.ID]
				if !ok {
					continue
				}
				if dep.ID != fileID {
					target.dependent(fileID).add(symID)
				}
				for name := range dep.Symbols {
					if targetSym, ok := target.Symbols[name]; ok {
						targetSym.dependent(fileID).add(symID)
					}
				}
			}
		}
	}

	for _, file := range m {
		file.Metrics.DependencyCount = len(file.Dependencies)
		file.Metrics.DependentCount = len(file.Dependents)
		for _, sym := range file.Symbols {
			sym.Metrics.DependencyCount = len(sym.Dependencies)
			sym.Metrics.DependentCount = len(sym.Dependents)
		}
	}
}

// FilePaths returns the manifest's file keys in case-insensitive order.
func (m Manifest) FilePaths() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	SortKeys(paths)
	return paths
}

// Names returns the symbol keys in case-insensitive order.
func (s SymbolMap) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	SortKeys(names)
	return names
}

// SortKeys sorts keys case-insensitively, falling back to byte order for ties.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := lower(keys[i]), lower(keys[j])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
}

func (f *FileManifest) dependent(id string) *Dependent {
	if d, ok := f.Dependents[id]; ok {
		return d
	}
	d := &Dependent{ID: id, Symbols: make(map[string]string)}
	f.Dependents[id] = d
	return d
}

func (s *SymbolManifest) dependent(id string) *Dependent {
	if d, ok := s.Dependents[id]; ok {
		return d
	}
	d := &Dependent{ID: id, Symbols: make(map[string]string)}
	s.Dependents[id] = d
	return d
}

func (d *Dependent) add(name string) {
	d.Symbols[name] = name
}
