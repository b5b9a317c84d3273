package inspect

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type structureItem struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Receiver string `json:"receiver,omitempty"`
	Line     int    `json:"line"`
	Doc      string `json:"doc,omitempty"`
}

// viewCodeStructure outlines a Go source file: package, imports and
// top-level declarations with their line numbers.
func (ins *inspector) viewCodeStructure(_ context.Context, params map[string]interface{}) (interface{}, error) {
	rel, err := stringArg(params, "path")
	if err != nil {
		return nil, err
	}
	file, fset, err := ins.parseFile(rel)
	if err != nil {
		return nil, err
	}

	items := []structureItem{}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			item := structureItem{
				Kind: "func",
				Name: d.Name.Name,
				Line: fset.Position(d.Pos()).Line,
				Doc:  firstDocLine(d.Doc),
			}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				item.Kind = "method"
				item.Receiver = typeName(d.Recv.List[0].Type)
			}
			items = append(items, item)

		case *ast.GenDecl:
			kind := map[token.Token]string{
				token.TYPE:  "type",
				token.CONST: "const",
				token.VAR:   "var",
			}[d.Tok]
			if kind == "" {
				continue
			}
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					items = append(items, structureItem{
						Kind: kind,
						Name: s.Name.Name,
						Line: fset.Position(s.Pos()).Line,
						Doc:  firstDocLine(d.Doc),
					})
				case *ast.ValueSpec:
					for _, name := range s.Names {
						items = append(items, structureItem{
							Kind: kind,
							Name: name.Name,
							Line: fset.Position(name.Pos()).Line,
						})
					}
				}
			}
		}
	}

	return map[string]interface{}{
		"path":         displayPath(rel),
		"package":      file.Name.Name,
		"imports":      importPaths(file),
		"declarations": items,
	}, nil
}

// getCodeDependencies reports what a Go file imports and which workspace
// files import that file's package in turn.
func (ins *inspector) getCodeDependencies(_ context.Context, params map[string]interface{}) (interface{}, error) {
	rel, err := stringArg(params, "path")
	if err != nil {
		return nil, err
	}
	file, _, err := ins.parseFile(rel)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"path":    displayPath(rel),
		"package": file.Name.Name,
		"imports": importPaths(file),
	}

	// reverse dependencies only resolve inside a module workspace
	if importPath := ins.packageImportPath(rel); importPath != "" {
		importers := []string{}
		_ = ins.walkGoFiles(func(otherRel string, other *ast.File, _ *token.FileSet) {
			if otherRel == displayPath(rel) {
				return
			}
			for _, imp := range importPaths(other) {
				if imp == importPath {
					importers = append(importers, otherRel)
					return
				}
			}
		})
		result["import_path"] = importPath
		result["imported_by"] = importers
	}

	return result, nil
}

type callSite struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Caller string `json:"caller"`
}

type definition struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Receiver string `json:"receiver,omitempty"`
}

// getCallHierarchy locates a function's definitions and every call site in
// the workspace. Matching is by name, so methods on different types with
// the same name are all reported.
func (ins *inspector) getCallHierarchy(_ context.Context, params map[string]interface{}) (interface{}, error) {
	name, err := stringArg(params, "function")
	if err != nil {
		return nil, err
	}

	definitions := []definition{}
	callers := []callSite{}

	err = ins.walkGoFiles(func(rel string, file *ast.File, fset *token.FileSet) {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Name.Name == name {
				def := definition{Path: rel, Line: fset.Position(fn.Pos()).Line}
				if fn.Recv != nil && len(fn.Recv.List) > 0 {
					def.Receiver = typeName(fn.Recv.List[0].Type)
				}
				definitions = append(definitions, def)
			}
			if fn.Body == nil {
				continue
			}

			caller := fn.Name.Name
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				if calleeName(call) == name && len(callers) < maxSearchResults {
					callers = append(callers, callSite{
						Path:   rel,
						Line:   fset.Position(call.Pos()).Line,
						Caller: caller,
					})
				}
				return true
			})
		}
	})
	if err != nil {
		return nil, err
	}

	if len(definitions) == 0 && len(callers) == 0 {
		return nil, fmt.Errorf("function %s not found in the workspace", name)
	}

	return map[string]interface{}{
		"function":    name,
		"definitions": definitions,
		"callers":     callers,
	}, nil
}

func (ins *inspector) parseFile(rel string) (*ast.File, *token.FileSet, error) {
	full, err := ins.resolve(rel)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(full, ".go") {
		return nil, nil, fmt.Errorf("%s is not a Go source file", displayPath(rel))
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, full, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", displayPath(rel), err)
	}
	return file, fset, nil
}

// walkGoFiles parses every Go file under the root and hands it to visit.
// Files that fail to parse are skipped.
func (ins *inspector) walkGoFiles(visit func(rel string, file *ast.File, fset *token.FileSet)) error {
	return ins.walk(func(rel string, d fs.DirEntry) error {
		if d.IsDir() || !strings.HasSuffix(rel, ".go") {
			return nil
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, filepath.Join(ins.root, rel), nil, 0)
		if err != nil {
			return nil
		}
		visit(rel, file, fset)
		return nil
	})
}

// packageImportPath derives the module-relative import path of the package
// containing rel, or "" when no go.mod is present.
func (ins *inspector) packageImportPath(rel string) string {
	data, err := os.ReadFile(filepath.Join(ins.root, "go.mod"))
	if err != nil {
		return ""
	}

	modulePath := ""
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			modulePath = strings.TrimSpace(strings.TrimPrefix(line, "module "))
			break
		}
	}
	if modulePath == "" {
		return ""
	}

	dir := path.Dir(displayPath(rel))
	if dir == "." {
		return modulePath
	}
	return modulePath + "/" + dir
}

func importPaths(file *ast.File) []string {
	paths := make([]string, 0, len(file.Imports))
	for _, imp := range file.Imports {
		if unquoted, err := strconv.Unquote(imp.Path.Value); err == nil {
			paths = append(paths, unquoted)
		}
	}
	return paths
}

func calleeName(call *ast.CallExpr) string {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name
	case *ast.SelectorExpr:
		return fn.Sel.Name
	}
	return ""
}

func typeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeName(t.X)
	case *ast.IndexExpr:
		return typeName(t.X)
	case *ast.SelectorExpr:
		return typeName(t.X) + "." + t.Sel.Name
	}
	return ""
}

func firstDocLine(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	text := strings.TrimSpace(doc.Text())
	if idx := strings.IndexByte(text, '\n'); idx != -1 {
		text = text[:idx]
	}
	return text
}
