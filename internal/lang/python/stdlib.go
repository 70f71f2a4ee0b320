package python

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// DefaultVersion is used when no Python version is configured.
const DefaultVersion = "3.12"

//go:embed data/stdlib.json
var stdlibData []byte

var (
	stdlibOnce   sync.Once
	stdlibTables map[string]map[string]struct{}
	stdlibErr    error
)

func loadStdlibTables() (map[string]map[string]struct{}, error) {
	stdlibOnce.Do(func() {
		var raw map[string][]string
		if err := json.Unmarshal(stdlibData, &raw); err != nil {
			stdlibErr = fmt.Errorf("failed to parse stdlib table: %w", err)
			return
		}
		stdlibTables = make(map[string]map[string]struct{}, len(raw))
		for version, names := range raw {
			set := make(map[string]struct{}, len(names))
			for _, name := range names {
				set[name] = struct{}{}
			}
			stdlibTables[version] = set
		}
	})
	return stdlibTables, stdlibErr
}

// KnownVersions lists the Python versions with a standard library table.
func KnownVersions() []string {
	tables, err := loadStdlibTables()
	if err != nil {
		return nil
	}
	versions := make([]string, 0, len(tables))
	for v := range tables {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versionKey(versions[i]) < versionKey(versions[j])
	})
	return versions
}

// StdlibModules returns the standard library module names for version and
// the version whose table was used. Unknown versions fall back to the nearest
// known one with a warning; ties prefer the newer table.
func StdlibModules(version string) (map[string]struct{}, string) {
	tables, err := loadStdlibTables()
	if err != nil {
		log.Printf("Warning: %v", err)
		return map[string]struct{}{}, ""
	}

	if version == "" {
		version = DefaultVersion
	}
	if set, ok := tables[version]; ok {
		return set, version
	}

	want := versionKey(version)
	best, bestDist := "", -1
	for _, v := range KnownVersions() {
		dist := abs(versionKey(v) - want)
		if bestDist < 0 || dist <= bestDist {
			best, bestDist = v, dist
		}
	}

	log.Printf("Warning: no standard library table for Python %s, using %s", version, best)
	return tables[best], best
}

// versionKey maps "3.11" to 3011. Malformed parts count as zero.
func versionKey(version string) int {
	major, minor, _ := strings.Cut(version, ".")
	ma, _ := strconv.Atoi(major)
	mi, _ := strconv.Atoi(minor)
	return ma*1000 + mi
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
