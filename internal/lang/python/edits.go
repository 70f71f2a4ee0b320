package python

import (
	"bytes"
	"sort"
	"strings"

	"github.com/mvp-joe/depsplit/internal/treesitter"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// edit replaces src[start:end] with text. An empty text is a deletion.
type edit struct {
	start, end uint
	text       string
}

// applyEdits applies edits to a copy of src. Overlapping or touching
// deletions are merged first so every offset refers to the original source.
func applyEdits(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}

	sorted := append([]edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	merged := []edit{sorted[0]}
	for _, e := range sorted[1:] {
		last := &merged[len(merged)-1]
		overlaps := e.start < last.end || (e.start == last.end && e.text == "" && last.text == "")
		if !overlaps {
			merged = append(merged, e)
			continue
		}
		if e.end > last.end {
			last.end = e.end
		}
		if last.text == "" {
			last.text = e.text
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	var pos uint
	for _, e := range merged {
		buf.Write(src[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(src[pos:])
	return buf.Bytes()
}

// lineSpan widens [start, end) to whole lines, trailing newline included,
// when only whitespace shares those lines with the range.
func lineSpan(src []byte, start, end uint) (uint, uint) {
	ls := start
	for ls > 0 && (src[ls-1] == ' ' || src[ls-1] == '\t') {
		ls--
	}
	if ls > 0 && src[ls-1] != '\n' {
		return start, end
	}

	le := end
	for le < uint(len(src)) && (src[le] == ' ' || src[le] == '\t' || src[le] == '\r') {
		le++
	}
	if le < uint(len(src)) {
		if src[le] != '\n' {
			return start, end
		}
		le++
	}
	return ls, le
}

// statementSpan widens [start, end) like lineSpan. A statement sharing its
// line through semicolons takes one adjoining semicolon with it, and a
// statement starting its line leaves the next one at the same column.
func statementSpan(src []byte, start, end uint) (uint, uint) {
	if next := skipBlanks(src, end); next < uint(len(src)) && src[next] == ';' {
		end = skipBlanks(src, next+1)
	} else if prev := skipBlanksBack(src, start); prev > 0 && src[prev-1] == ';' {
		return prev - 1, end
	}

	ls, le := lineSpan(src, start, end)
	if ls == start && le == end && atLineStart(src, start) {
		return start, skipBlanks(src, end)
	}
	return ls, le
}

func skipBlanks(src []byte, i uint) uint {
	for i < uint(len(src)) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return i
}

func skipBlanksBack(src []byte, i uint) uint {
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	return i
}

func atLineStart(src []byte, i uint) bool {
	i = skipBlanksBack(src, i)
	return i == 0 || src[i-1] == '\n'
}

// lineOf returns the range of the line containing offset, newline included.
func lineOf(src []byte, offset uint) (uint, uint) {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := offset
	for end < uint(len(src)) && src[end] != '\n' {
		end++
	}
	if end < uint(len(src)) {
		end++
	}
	return start, end
}

func deleteNode(src []byte, node *sitter.Node) edit {
	start, end := statementSpan(src, node.StartByte(), node.EndByte())
	return edit{start: start, end: end}
}

type blockKey struct{ start, end uint }

// removeStatements deletes whole statements. When every statement of a
// block goes, the first is replaced by pass so the block stays valid.
func removeStatements(file *treesitter.File, nodes []*sitter.Node) []edit {
	removed := make(map[blockKey][]*sitter.Node)
	var edits []edit

	for _, node := range nodes {
		parent := node.Parent()
		if parent == nil || parent.Kind() != "block" {
			edits = append(edits, deleteNode(file.Source, node))
			continue
		}
		key := blockKey{parent.StartByte(), parent.EndByte()}
		removed[key] = append(removed[key], node)
	}

	for _, group := range removed {
		parent := group[0].Parent()
		emptied := len(treesitter.NamedChildren(parent)) == len(group)

		sort.Slice(group, func(i, j int) bool {
			return group[i].StartByte() < group[j].StartByte()
		})
		for i, node := range group {
			if emptied && i == 0 {
				edits = append(edits, edit{start: node.StartByte(), end: node.EndByte(), text: "pass"})
				continue
			}
			edits = append(edits, deleteNode(file.Source, node))
		}
	}
	return edits
}

// importFilter decides which parts of an import statement survive.
type importFilter struct {
	member func(ImportStatement, ImportMember) bool
	item   func(ImportStatement, ImportMember, ImportItem) bool
}

// rewriteImports drops the members and items filter rejects, rewriting
// partially kept statements and removing emptied ones.
func rewriteImports(file *treesitter.File, stmts []ImportStatement, filter importFilter) []edit {
	var (
		edits   []edit
		removed []*sitter.Node
	)

	for _, stmt := range stmts {
		switch {
		case stmt.Kind == ImportDirect:
			var kept []string
			for _, m := range stmt.Members {
				if filter.member(stmt, m) {
					kept = append(kept, file.Text(m.Node))
				}
			}
			switch len(kept) {
			case len(stmt.Members):
			case 0:
				removed = append(removed, stmt.Node)
			default:
				edits = append(edits, edit{
					start: stmt.Node.StartByte(),
					end:   stmt.Node.EndByte(),
					text:  "import " + strings.Join(kept, ", "),
				})
			}

		case stmt.Members[0].IsWildcard:
			if !filter.member(stmt, stmt.Members[0]) {
				removed = append(removed, stmt.Node)
			}

		default:
			member := stmt.Members[0]
			var kept []string
			for _, item := range member.Items {
				if filter.item(stmt, member, item) {
					kept = append(kept, file.Text(item.Node))
				}
			}
			switch len(kept) {
			case len(member.Items):
			case 0:
				removed = append(removed, stmt.Node)
			default:
				edits = append(edits, edit{
					start: stmt.Node.StartByte(),
					end:   stmt.Node.EndByte(),
					text:  "from " + file.Text(member.Node) + " import " + strings.Join(kept, ", "),
				})
			}
		}
	}

	return append(edits, removeStatements(file, removed)...)
}
