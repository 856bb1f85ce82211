package pagination

import (
	"context"
	"sync"

	"news_surge/internal/models"
)

// TotalPages возвращает ceil(total/size). Для пустого списка — 0 страниц.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Page возвращает срез [ (page-1)*size, page*size ) без копирования.
// Страницы нумеруются с единицы; выход за пределы даёт пустой срез.
func Page(articles []models.Article, page, size int) []models.Article {
	if page < 1 || size <= 0 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(articles) {
		return nil
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end]
}

// Button — один элемент строки пагинации: номер страницы либо многоточие.
type Button struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Buttons строит строку кнопок: первая и последняя страницы видны всегда,
// текущая ±2, остальные схлопываются в многоточие.
func Buttons(current, total int) []Button {
	if total < 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	var out []Button
	skipped := false
	for p := 1; p <= total; p++ {
		visible := p == 1 || p == total || (p >= current-2 && p <= current+2)
		if !visible {
			if !skipped {
				out = append(out, Button{Ellipsis: true})
				skipped = true
			}
			continue
		}
		skipped = false
		out = append(out, Button{Page: p, Current: p == current})
	}
	return out
}

// Loader загружает страницу page и сообщает, остались ли ещё данные.
type Loader func(ctx context.Context, page int) ([]models.Article, bool, error)

// ScrollController реализует «бесконечную» прокрутку: каждый вызов LoadMore —
// это срабатывание sentinel-элемента. Повторные вызовы во время загрузки
// игнорируются (busy guard), исчерпание данных останавливает дальнейшие
// загрузки.
type ScrollController struct {
	loader Loader

	mu      sync.Mutex
	page    int
	hasMore bool
	loading bool
	items   []models.Article
}

func NewScrollController(loader Loader) *ScrollController {
	return &ScrollController{loader: loader, hasMore: true}
}

// LoadMore запрашивает следующую страницу и дописывает её к накопленному
// списку. Возвращает только добавленные статьи; (nil, nil) — когда загрузка
// уже идёт или данных больше нет.
func (c *ScrollController) LoadMore(ctx context.Context) ([]models.Article, error) {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil, nil
	}
	c.loading = true
	page := c.page + 1
	c.mu.Unlock()

	batch, hasMore, err := c.loader(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return nil, err
	}
	c.page = page
	c.hasMore = hasMore
	c.items = append(c.items, batch...)
	return batch, nil
}

// Items возвращает всё, что накоплено контроллером.
func (c *ScrollController) Items() []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// HasMore сообщает, остались ли незагруженные страницы.
func (c *ScrollController) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}
