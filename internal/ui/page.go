package ui

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/view"
	"github.com/ashureev/orlo/web"
)

// Renderer writes pages using the embedded template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page template.
func NewRenderer() (*Renderer, error) {
	md := NewMarkdown()
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"markdown": md.HTML,
		"avatar":   avatar,
		"hint":     func() string { return view.SidebarHint },
	}).ParseFS(web.Templates(), "index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes page to w. The page is rendered to a buffer first so a
// template failure never leaves a partial response.
func (r *Renderer) Render(w io.Writer, page view.Page) error {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func avatar(role domain.Role) string {
	if role == domain.RoleUser {
		return "🧑"
	}
	return view.Icon
}
