package vibe

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Classes applied to generated markup so it sits on the dark glass panel.
const (
	classH1     = "text-2xl font-bold text-purple-300 mt-4 mb-2 border-b border-purple-500/30 pb-2"
	classH2     = "text-xl font-semibold text-purple-200 mt-4 mb-2"
	classH3     = "text-lg font-semibold text-purple-100 mt-3 mb-1"
	classTable  = "border-collapse border border-white/20 my-4 w-full text-sm"
	classTH     = "border border-white/20 bg-purple-900/40 p-3 text-left font-semibold"
	classTD     = "border border-white/20 p-3"
	classUL     = "list-disc list-inside space-y-1 ml-2 text-white/90"
	classOL     = "list-decimal list-inside space-y-1 ml-2 text-white/90"
	classStrong = "font-bold text-purple-200"
	classEm     = "italic text-white/80"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(styleTransformer{}, 100)),
		),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
}

// styleTransformer sets class attributes on the nodes the panel styles.
type styleTransformer struct{}

func (styleTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if class := classFor(n); class != "" {
			n.SetAttributeString("class", []byte(class))
		}
		return ast.WalkContinue, nil
	})
}

func classFor(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Heading:
		switch n.Level {
		case 1:
			return classH1
		case 2:
			return classH2
		case 3:
			return classH3
		}
	case *ast.List:
		if n.IsOrdered() {
			return classOL
		}
		return classUL
	case *ast.Emphasis:
		if n.Level == 2 {
			return classStrong
		}
		return classEm
	case *east.Table:
		return classTable
	case *east.TableCell:
		if n.Parent() != nil && n.Parent().Kind() == east.KindTableHeader {
			return classTH
		}
		return classTD
	}
	return ""
}

// RenderMarkdown converts generated markdown to styled HTML. Raw HTML in
// the source is omitted.
func RenderMarkdown(md goldmark.Markdown, source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
