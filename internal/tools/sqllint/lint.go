package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlPattern    = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)
	markerPattern = regexp.MustCompile(`^--sql ([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
)

type violation struct {
	file    string
	line    int
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type seenMarker struct {
	file string
	name string
}

// lintFiles reports constants with a missing or malformed marker and
// markers reused by more than one query.
func lintFiles(paths []string) ([]violation, error) {
	seen := map[string]seenMarker{}
	var out []violation
	for _, path := range paths {
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		ast.Inspect(file, func(n ast.Node) bool {
			spec, ok := n.(*ast.ValueSpec)
			if !ok {
				return true
			}
			for i, value := range spec.Values {
				lit, ok := value.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				raw, err := unquote(lit.Value)
				if err != nil || !sqlPattern.MatchString(raw) {
					continue
				}
				name := "_"
				if i < len(spec.Names) {
					name = spec.Names[i].Name
				}
				line := fset.Position(lit.Pos()).Line
				m := markerPattern.FindStringSubmatch(firstLine(raw))
				if m == nil {
					out = append(out, violation{file: path, line: line, name: name, message: "missing or invalid --sql <uuid> marker"})
					continue
				}
				if prev, dup := seen[m[1]]; dup {
					out = append(out, violation{file: path, line: line, name: name, message: fmt.Sprintf("marker already used by %s in %s", prev.name, prev.file)})
					continue
				}
				seen[m[1]] = seenMarker{file: path, name: name}
			}
			return true
		})
	}
	return out, nil
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) >= 2 && v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}
