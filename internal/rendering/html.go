package rendering

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed style.css
var styleCSS string

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var documentTemplate = template.Must(template.New("document").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>{{.CSS}}</style></head>
<body><div class="doc">{{.Body}}</div></body></html>
`))

// MarkdownToHTML converts a markdown fragment to HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", &RenderError{Format: FormatHTML, Message: "markdown convert", Cause: err}
	}
	return buf.String(), nil
}

// HTMLDocument wraps converted markdown in a standalone, styled HTML page.
func HTMLDocument(title, md string) (string, error) {
	body, err := MarkdownToHTML(md)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, struct {
		Title string
		CSS   template.CSS
		Body  template.HTML
	}{
		Title: title,
		CSS:   template.CSS(styleCSS),
		// goldmark escapes raw HTML in its input unless WithUnsafe is set
		Body: template.HTML(body),
	})
	if err != nil {
		return "", &TemplateError{Message: "failed to execute document template", Cause: err}
	}
	return buf.String(), nil
}
