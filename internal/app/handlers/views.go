package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/lego-store/internal/session"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{
	"index.html",
	"product.html",
	"login.html",
	"register.html",
	"cart.html",
	"order.html",
	"orders.html",
	"error.html",
}

// Page - данные для шаблона: общая часть макета и содержимое конкретной страницы
type Page struct {
	Title string
	User  *session.Session
	Error string
	Data  any
}

// Views хранит шаблоны страниц, каждая собрана вместе с layout.html
type Views struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02.01.2006 15:04") },
}

func NewViews() (*Views, error) {
	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v.pages[name] = tpl
	}
	return v, nil
}

// MustViews - если шаблоны не собрались - паникуем
func MustViews() *Views {
	v, err := NewViews()
	if err != nil {
		panic(err)
	}
	return v
}

// render выполняет шаблон в буфер, чтобы ошибка шаблона не оставила половину страницы
func (v *Views) render(w http.ResponseWriter, log *slog.Logger, status int, name string, page Page) {
	tpl, ok := v.pages[name]
	if !ok {
		log.Error("unknown template", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		log.Error("failed to render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError показывает страницу ошибки с коротким сообщением для пользователя
func (v *Views) renderError(w http.ResponseWriter, log *slog.Logger, status int, user *session.Session, msg string) {
	v.render(w, log, status, "error.html", Page{Title: http.StatusText(status), User: user, Error: msg})
}
