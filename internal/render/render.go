package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"news_surge/internal/images"
	"news_surge/internal/models"
)

// Шаблоны четырёх представлений статьи. Весь пользовательский текст проходит
// через авто-экранирование html/template; картинки подставляются резолвером
// с onerror-фолбэком на заглушку.
const fragmentTemplates = `
{{define "card"}}<article class="news-card{{if .IsBreaking}} breaking{{end}}" data-category="{{.Category}}">
<a href="{{.URL}}"><img src="{{.Image}}" alt="{{.Title}}" loading="lazy" onerror="this.src='{{.Placeholder}}'"></a>
<div class="news-card-body">
<span class="news-category">{{.Category}}</span>
<h3><a href="{{.URL}}">{{.Title}}</a></h3>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<div class="news-meta"><span class="news-source">{{.Source}}</span><time>{{.TimeLabel}}</time></div>
</div>
</article>{{end}}

{{define "hero"}}<section class="hero{{if .IsBreaking}} breaking{{end}}">
<img src="{{.Image}}" alt="{{.Title}}" onerror="this.src='{{.Placeholder}}'">
<div class="hero-overlay">
{{if .IsBreaking}}<span class="breaking-badge">Breaking</span>{{end}}
<span class="news-category">{{.Category}}</span>
<h1><a href="{{.URL}}">{{.Title}}</a></h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<div class="news-meta"><span class="news-source">{{.Source}}</span><time>{{.TimeLabel}}</time></div>
</div>
</section>{{end}}

{{define "sidebar"}}<li class="trending-item">
<img src="{{.Image}}" alt="" onerror="this.src='{{.Placeholder}}'">
<div><a href="{{.URL}}">{{.Title}}</a><time>{{.TimeLabel}}</time></div>
</li>{{end}}

{{define "detail"}}<article class="news-detail">
{{if .IsBreaking}}<span class="breaking-badge">Breaking</span>{{end}}
<span class="news-category">{{.Category}}</span>
<h1>{{.Title}}</h1>
<div class="news-meta"><span class="news-source">{{.Source}}</span><time>{{.TimeLabel}}</time></div>
<img src="{{.Image}}" alt="{{.Title}}" onerror="this.src='{{.Placeholder}}'">
{{if .Description}}<p class="news-lead">{{.Description}}</p>{{end}}
{{if .Content}}<div class="news-content">{{.Content}}</div>{{end}}
<p><a href="{{.URL}}" rel="noopener">Read the full story</a></p>
</article>{{end}}
`

// articleView — данные фрагмента; строится из статьи функцией makeView.
type articleView struct {
	URL         string
	Title       string
	Description string
	Content     string
	Category    string
	Source      string
	Image       string
	Placeholder string
	TimeLabel   string
	IsBreaking  bool
}

// Renderer превращает статьи в HTML-фрагменты. Чистый по данным: вся запись
// в DOM/файлы остаётся за вызывающим.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

func New() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("fragments").Parse(fragmentTemplates)),
		now:  time.Now,
	}
}

// NewAt создаёт рендерер с фиксированными часами — для тестов.
func NewAt(now func() time.Time) *Renderer {
	r := New()
	r.now = now
	return r
}

// Card — карточка статьи для сетки.
func (r *Renderer) Card(a *models.Article) (string, error) { return r.exec("card", a) }

// Hero — крупный блок для главной статьи.
func (r *Renderer) Hero(a *models.Article) (string, error) { return r.exec("hero", a) }

// Sidebar — компактный элемент списка «в тренде».
func (r *Renderer) Sidebar(a *models.Article) (string, error) { return r.exec("sidebar", a) }

// Detail — полное представление статьи.
func (r *Renderer) Detail(a *models.Article) (string, error) { return r.exec("detail", a) }

func (r *Renderer) exec(name string, a *models.Article) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, name, r.makeView(a)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) makeView(a *models.Article) articleView {
	return articleView{
		URL:         a.URL,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		Category:    a.Category,
		Source:      a.SourceName(),
		Image:       images.Resolve(a),
		Placeholder: images.Placeholder,
		TimeLabel:   r.timeLabel(a),
		IsBreaking:  a.IsBreaking,
	}
}

func (r *Renderer) timeLabel(a *models.Article) string {
	t, ok := a.PublishedTime()
	if !ok {
		return "recently"
	}
	return RelativeTime(r.now(), t)
}

// RelativeTime форматирует давность публикации единым для всех представлений
// образом; старше недели — абсолютная дата.
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	case d <= 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
