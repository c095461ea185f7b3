package main

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed views
var viewsFS embed.FS

// Names of the renderable views.
const (
	ViewIndex       = "index"
	ViewNewBook     = "new_book"
	ViewEditBook    = "edit_book"
	ViewNotFound    = "not_found"
	ViewError       = "error"
	ViewMaintenance = "maintenance"
)

// Display modes of the listing and not-found views.
const (
	ModeBooks   = "books"
	ModeNoBooks = "no-books"
	ModeSearch  = "search"
	ModeBook    = "book"
)

// BooksFirstPagePath is where every successful write redirects to.
const BooksFirstPagePath = "/books/page/1"

// ViewData is the data bag handed to the templates.
type ViewData struct {
	Title     string
	RequestID string
	Mode      string
	Page      PageDescriptor
	Books     []Book
	Term      string
	BookID    string
	Form      BookForm
	Errors    []FieldError
	Status    int
	Message   string
}

// FieldError returns the message attached to the given field if any.
func (vd ViewData) FieldError(field string) string {
	for _, fe := range vd.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Renderer turns a named view and its data into an html page.
type Renderer interface {
	Render(w io.Writer, view string, data ViewData) error
}

// TemplateRenderer renders the html templates embedded into the binary.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every embedded view.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("views").Funcs(template.FuncMap{
		"bookPath": func(id string) string { return "/books/" + id },
		"pagePath": func(n int) string { return fmt.Sprintf("/books/page/%d", n) },
		"date":     func(b Book) string { return b.CreatedAt.Format("2006-01-02 15:04") },
	}).ParseFS(viewsFS, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse views: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render executes the named view.
func (tr *TemplateRenderer) Render(w io.Writer, view string, data ViewData) error {
	if tr.templates.Lookup(view) == nil {
		return fmt.Errorf("view %q does not exist", view)
	}
	return tr.templates.ExecuteTemplate(w, view, data)
}

// StaticFS exposes the embedded assets folder.
func StaticFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views/static")
	if err != nil {
		panic(err)
	}
	return sub
}
