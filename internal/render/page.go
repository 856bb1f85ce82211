package render

import (
	"fmt"
	"html/template"
	"strings"

	"news_surge/internal/models"
	"news_surge/internal/pagination"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/css/site.css">
</head>
<body>
<main class="container">
{{.Body}}
</main>
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Page оборачивает готовый фрагмент в страницу. Body уже отрендерен
// шаблонами фрагментов и поэтому вставляется как есть.
func (r *Renderer) Page(title, theme string, body string) (string, error) {
	if theme == "" {
		theme = "light"
	}
	var sb strings.Builder
	err := pageTmpl.Execute(&sb, struct {
		Title string
		Theme string
		Body  template.HTML
	}{Title: title, Theme: theme, Body: template.HTML(body)})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Grid рендерит список карточек для сетки.
func (r *Renderer) Grid(articles []models.Article) (string, error) {
	var sb strings.Builder
	sb.WriteString(`<div class="news-grid">`)
	for i := range articles {
		card, err := r.Card(&articles[i])
		if err != nil {
			return "", err
		}
		sb.WriteString(card)
	}
	sb.WriteString(`</div>`)
	return sb.String(), nil
}

// Trending рендерит боковой список «в тренде».
func (r *Renderer) Trending(articles []models.Article) (string, error) {
	var sb strings.Builder
	sb.WriteString(`<ul class="trending-list">`)
	for i := range articles {
		item, err := r.Sidebar(&articles[i])
		if err != nil {
			return "", err
		}
		sb.WriteString(item)
	}
	sb.WriteString(`</ul>`)
	return sb.String(), nil
}

// PageNav рендерит строку номерной пагинации; href строится из baseURL и
// номера страницы.
func (r *Renderer) PageNav(buttons []pagination.Button, baseURL string) string {
	if len(buttons) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<nav class="pagination">`)
	for _, b := range buttons {
		switch {
		case b.Ellipsis:
			sb.WriteString(`<span class="ellipsis">&hellip;</span>`)
		case b.Current:
			fmt.Fprintf(&sb, `<span class="current">%d</span>`, b.Page)
		default:
			fmt.Fprintf(&sb, `<a href="%s%d">%d</a>`, template.HTMLEscapeString(baseURL), b.Page, b.Page)
		}
	}
	sb.WriteString(`</nav>`)
	return sb.String()
}
