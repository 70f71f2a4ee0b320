package manifest

// Metrics holds size and complexity figures for a file or a symbol.
type Metrics struct {
	CharacterCount       int `json:"characterCount"`
	CodeCharacterCount   int `json:"codeCharacterCount"`
	LineCount            int `json:"lineCount"`
	CodeLineCount        int `json:"codeLineCount"`
	DependencyCount      int `json:"dependencyCount"`
	DependentCount       int `json:"dependentCount"`
	CyclomaticComplexity int `json:"cyclomaticComplexity"`
}

// Dependency is an outgoing edge. ID is a file path for internal targets and
// a module name for external ones. Symbols maps each used name to itself.
type Dependency struct {
	ID          string            `json:"id"`
	IsExternal  bool              `json:"isExternal"`
	IsNamespace bool              `json:"isNamespace,omitempty"`
	Symbols     map[string]string `json:"symbols"`
}

// Dependent is an incoming edge keyed by the depending file.
type Dependent struct {
	ID      string            `json:"id"`
	Symbols map[string]string `json:"symbols"`
}

// SymbolManifest describes one top-level symbol of a file.
type SymbolManifest struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Metrics      Metrics                `json:"metrics"`
	Dependencies map[string]*Dependency `json:"dependencies"`
	Dependents   map[string]*Dependent  `json:"dependents"`
}

// FileManifest describes one source file.
type FileManifest struct {
	ID           string                 `json:"id"`
	FilePath     string                 `json:"filePath"`
	Language     string                 `json:"language"`
	Metrics      Metrics                `json:"metrics"`
	Dependencies map[string]*Dependency `json:"dependencies"`
	Dependents   map[string]*Dependent  `json:"dependents"`
	Symbols      SymbolMap              `json:"symbols"`
}

// SymbolMap holds a file's symbols keyed by name.
type SymbolMap map[string]*SymbolManifest

// Manifest maps file paths to their manifests.
type Manifest map[string]*FileManifest

// NewDependency creates an edge with an empty symbol set.
func NewDependency(id string, external bool) *Dependency {
	return &Dependency{
		ID:         id,
		IsExternal: external,
		Symbols:    make(map[string]string),
	}
}

// AddSymbol records name as used through the edge.
func (d *Dependency) AddSymbol(name string) {
	if d.Symbols == nil {
		d.Symbols = make(map[string]string)
	}
	d.Symbols[name] = name
}

// NewFileManifest creates a file entry with empty edge and symbol maps.
func NewFileManifest(filePath, language string) *FileManifest {
	return &FileManifest{
		ID:           filePath,
		FilePath:     filePath,
		Language:     language,
		Dependencies: make(map[string]*Dependency),
		Dependents:   make(map[string]*Dependent),
		Symbols:      make(SymbolMap),
	}
}

// NewSymbolManifest creates a symbol entry with empty edge maps.
func NewSymbolManifest(id, kind string) *SymbolManifest {
	return &SymbolManifest{
		ID:           id,
		Type:         kind,
		Dependencies: make(map[string]*Dependency),
		Dependents:   make(map[string]*Dependent),
	}
}
