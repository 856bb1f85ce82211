package images

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"news_surge/internal/models"
)

// Placeholder отдаётся, когда ни один кандидат не прошёл проверку.
const Placeholder = "/images/placeholder.svg"

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

// Resolve выбирает URL картинки для статьи. Порядок кандидатов фиксирован:
// imageUrl → urlToImage → первый <img src> из content → из description →
// Placeholder. Функция чистая и детерминированная.
func Resolve(a *models.Article) string {
	if validURL(a.ImageURL) {
		return a.ImageURL
	}
	if validURL(a.URLToImage) {
		return a.URLToImage
	}
	if src := extractIMG(a.Content); src != "" {
		return src
	}
	if src := extractIMG(a.Description); src != "" {
		return src
	}
	return Placeholder
}

// validURL: абсолютный URL со схемой http или https.
func validURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// extractIMG ищет первый тег <img> с валидным src и известным расширением
// картинки. Фрагменты в content часто обрезаны, поэтому используется
// токенизатор, а не полный парсер.
func extractIMG(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}

	tok := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return ""
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tok.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}
		for {
			key, val, more := tok.TagAttr()
			if string(key) == "src" {
				src := strings.ReplaceAll(string(val), "&amp;", "&")
				if validURL(src) && knownExtension(src) {
					return src
				}
			}
			if !more {
				break
			}
		}
	}
}

func knownExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return false
	}
	_, ok := imageExtensions[path[dot:]]
	return ok
}
