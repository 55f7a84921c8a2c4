// Command loom-tool-gen generates tool definitions for functions annotated
// with a loom:tool directive comment. For every annotated function it emits a
// package-level <name>Tool variable built with tool.Must, written to a
// _loom_gen.go file beside the source file and formatted with gofumpt.
package main

import (
	"bytes"
	"flag"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"mvdan.cc/gofumpt/format"
)

const (
	marker         = "loom:tool"
	genSuffix      = "_loom_gen.go"
	toolImportPath = "github.com/casualjim/loom/tool"
)

var (
	log    zerolog.Logger
	osExit = os.Exit
)

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelInfo}),
	))
}

func main() {
	path := flag.String("path", ".", "file or directory to scan for annotated functions")
	export := flag.Bool("export", false, "export the generated tool variables")
	flag.Parse()

	info, err := os.Stat(*path)
	if err != nil {
		log.Error().Err(err).Str("path", *path).Msg("Error accessing path")
		osExit(1)
		return
	}

	if !info.IsDir() {
		if processGoFile(*path, *export) != nil {
			osExit(1)
		}
		return
	}

	failed := false
	walkErr := filepath.WalkDir(*path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".go") ||
			strings.HasSuffix(p, "_test.go") || strings.HasSuffix(p, genSuffix) {
			return nil
		}
		if processGoFile(p, *export) != nil {
			failed = true
		}
		return nil
	})
	if walkErr != nil {
		log.Error().Err(walkErr).Str("path", *path).Msg("Error accessing path")
		osExit(1)
		return
	}
	if failed {
		osExit(1)
	}
}

// toolFuncInfo is one annotated function: everything the generated variable
// needs from the declaration site.
type toolFuncInfo struct {
	name        string
	comments    []*ast.Comment
	params      []*ast.Field
	exportTools bool
}

func processGoFile(path string, exportTools bool) error {
	fset := token.NewFileSet()
	fileAST, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error parsing file")
		return err
	}

	tools := collectTools(fileAST, exportTools)
	if len(tools) == 0 {
		return nil
	}

	src, err := renderToolsFile(createToolsFile(fileAST.Name.Name, tools))
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error generating file")
		return err
	}

	outPath := strings.TrimSuffix(path, ".go") + genSuffix
	if err := os.WriteFile(outPath, src, 0o644); err != nil {
		log.Error().Err(err).Str("file", outPath).Msg("Error writing file")
		return err
	}

	log.Info().Str("file", outPath).Msg("Generated file")
	return nil
}

// collectTools returns the annotated functions in the file. The directive
// line itself is dropped from the collected comments; what remains becomes
// the tool's description.
func collectTools(fileAST *ast.File, exportTools bool) []toolFuncInfo {
	var tools []toolFuncInfo
	for _, decl := range fileAST.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}

		annotated := false
		var comments []*ast.Comment
		for _, c := range fn.Doc.List {
			if isMarker(c) {
				annotated = true
				continue
			}
			comments = append(comments, c)
		}
		if !annotated {
			continue
		}

		var params []*ast.Field
		if fn.Type.Params != nil {
			params = fn.Type.Params.List
		}
		tools = append(tools, toolFuncInfo{
			name:        fn.Name.Name,
			comments:    comments,
			params:      params,
			exportTools: exportTools,
		})
	}
	return tools
}

func isMarker(c *ast.Comment) bool {
	return strings.TrimSpace(strings.TrimPrefix(c.Text, "//")) == marker
}

// createToolsFile assembles the generated file: the tool package import plus
// one variable declaration per annotated function.
func createToolsFile(pkgName string, toolFuncs []toolFuncInfo) *ast.File {
	decls := []ast.Decl{
		&ast.GenDecl{
			Tok: token.IMPORT,
			Specs: []ast.Spec{
				&ast.ImportSpec{
					Path: &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(toolImportPath)},
				},
			},
		},
	}
	for _, tf := range toolFuncs {
		decls = append(decls, createToolVariableAST(tf))
	}
	return &ast.File{Name: ast.NewIdent(pkgName), Decls: decls}
}

// createToolVariableAST builds one `var <name>Tool = tool.Must(...)`
// declaration carrying the function's doc comment.
func createToolVariableAST(tf toolFuncInfo) ast.Decl {
	varName := tf.name + "Tool"
	if tf.exportTools {
		varName = strings.ToUpper(tf.name[:1]) + tf.name[1:] + "Tool"
	}

	args := []ast.Expr{
		ast.NewIdent(tf.name),
		toolOption("Name", stringLit(tf.name)),
	}
	if desc := description(tf.comments); desc != "" {
		args = append(args, toolOption("Description", stringLit(desc)))
	}
	if names := paramNames(tf.params); len(names) > 0 {
		lits := make([]ast.Expr, len(names))
		for i, n := range names {
			lits[i] = stringLit(n)
		}
		args = append(args, toolOption("Parameters", lits...))
	}

	decl := &ast.GenDecl{
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names: []*ast.Ident{ast.NewIdent(varName)},
				Values: []ast.Expr{
					&ast.CallExpr{
						Fun: &ast.SelectorExpr{
							X:   ast.NewIdent("tool"),
							Sel: ast.NewIdent("Must"),
						},
						Args: args,
					},
				},
			},
		},
	}
	if len(tf.comments) > 0 {
		decl.Doc = &ast.CommentGroup{List: tf.comments}
	}
	return decl
}

func toolOption(name string, args ...ast.Expr) ast.Expr {
	return &ast.CallExpr{
		Fun:  &ast.SelectorExpr{X: ast.NewIdent("tool"), Sel: ast.NewIdent(name)},
		Args: args,
	}
}

func stringLit(s string) ast.Expr {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(s)}
}

func description(comments []*ast.Comment) string {
	parts := make([]string, 0, len(comments))
	for _, c := range comments {
		if text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//")); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// paramNames lists the names the schema should advertise, in order. A
// ContextVars parameter is injected by the engine rather than supplied by
// the model, so it does not get a name.
func paramNames(fields []*ast.Field) []string {
	var names []string
	for _, f := range fields {
		if isContextVars(f.Type) {
			continue
		}
		for _, n := range f.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

func isContextVars(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	return ok && sel.Sel.Name == "ContextVars"
}

// renderToolsFile prints the file with the generated-code header. Doc
// comments are written by hand because the printer drops comment groups on
// synthesized nodes.
func renderToolsFile(file *ast.File) ([]byte, error) {
	fset := token.NewFileSet()

	var buf bytes.Buffer
	buf.WriteString("// Code generated by loom-tool-gen; DO NOT EDIT.\n\n")
	buf.WriteString("package " + file.Name.Name + "\n\n")

	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Doc != nil {
			for _, c := range gd.Doc.List {
				buf.WriteString(c.Text + "\n")
			}
		}
		if err := printer.Fprint(&buf, fset, decl); err != nil {
			return nil, err
		}
		buf.WriteString("\n\n")
	}

	return format.Source(buf.Bytes(), format.Options{})
}
