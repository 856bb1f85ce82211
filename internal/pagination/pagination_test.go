package pagination_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"news_surge/internal/models"
	"news_surge/internal/pagination"

	"github.com/stretchr/testify/require"
)

func makeArticles(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{URL: "https://example.com/" + strconv.Itoa(i)}
	}
	return out
}

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		total, size, expected int
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{14, 12, 2},
		{24, 12, 2},
		{25, 12, 3},
		{10, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d_%d", tc.total, tc.size), func(t *testing.T) {
			require.Equal(t, tc.expected, pagination.TotalPages(tc.total, tc.size))
		})
	}
}

func TestPageSlicing(t *testing.T) {
	articles := makeArticles(14)

	first := pagination.Page(articles, 1, 12)
	require.Len(t, first, 12)
	require.Equal(t, articles[0].URL, first[0].URL)

	second := pagination.Page(articles, 2, 12)
	require.Len(t, second, 2)
	require.Equal(t, articles[12].URL, second[0].URL)

	require.Empty(t, pagination.Page(articles, 3, 12))
	require.Empty(t, pagination.Page(articles, 0, 12))
}

func TestPagesConcatenate(t *testing.T) {
	articles := makeArticles(25)
	size := 12

	var joined []models.Article
	for p := 1; p <= pagination.TotalPages(len(articles), size); p++ {
		joined = append(joined, pagination.Page(articles, p, size)...)
	}
	require.Len(t, joined, len(articles))
	for i := range joined {
		require.Equal(t, articles[i].URL, joined[i].URL)
	}
}

func TestButtonsSmall(t *testing.T) {
	buttons := pagination.Buttons(2, 3)
	require.Len(t, buttons, 3)
	for i, b := range buttons {
		require.Equal(t, i+1, b.Page)
		require.False(t, b.Ellipsis)
		require.Equal(t, i+1 == 2, b.Current)
	}
}

func TestButtonsEllipsis(t *testing.T) {
	// 1 ... 8 9 [10] 11 12 ... 20
	buttons := pagination.Buttons(10, 20)
	require.Len(t, buttons, 9)

	require.Equal(t, 1, buttons[0].Page)
	require.True(t, buttons[1].Ellipsis)
	require.Equal(t, 8, buttons[2].Page)
	require.Equal(t, 10, buttons[4].Page)
	require.True(t, buttons[4].Current)
	require.Equal(t, 12, buttons[6].Page)
	require.True(t, buttons[7].Ellipsis)
	require.Equal(t, 20, buttons[8].Page)
}

func TestButtonsEdges(t *testing.T) {
	require.Nil(t, pagination.Buttons(1, 0))

	buttons := pagination.Buttons(1, 10)
	require.Equal(t, 1, buttons[0].Page)
	require.True(t, buttons[0].Current)

	// Текущая страница за пределами диапазона прижимается к границе
	buttons = pagination.Buttons(99, 5)
	require.True(t, buttons[len(buttons)-1].Current)
}

func TestScrollControllerLoadMore(t *testing.T) {
	articles := makeArticles(14)
	size := 12
	loader := func(ctx context.Context, page int) ([]models.Article, bool, error) {
		batch := pagination.Page(articles, page, size)
		return batch, page < pagination.TotalPages(len(articles), size), nil
	}

	c := pagination.NewScrollController(loader)
	require.True(t, c.HasMore())

	batch, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 12)
	require.True(t, c.HasMore())

	batch, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 2)
	require.False(t, c.HasMore())

	// Данных больше нет: вызов ничего не делает
	batch, err = c.LoadMore(context.Background())
	require.NoError(t, err)
	require.Nil(t, batch)

	require.Len(t, c.Items(), 14)
}

func TestScrollControllerBusyGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	loader := func(ctx context.Context, page int) ([]models.Article, bool, error) {
		close(started)
		<-release
		return makeArticles(1), false, nil
	}

	c := pagination.NewScrollController(loader)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.LoadMore(context.Background())
	}()

	<-started
	// Повторный вызов во время загрузки игнорируется
	batch, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	require.Nil(t, batch)

	close(release)
	<-done
	require.Len(t, c.Items(), 1)
}

func TestScrollControllerError(t *testing.T) {
	loadErr := errors.New("upstream down")
	calls := 0
	loader := func(ctx context.Context, page int) ([]models.Article, bool, error) {
		calls++
		if calls == 1 {
			return nil, false, loadErr
		}
		return makeArticles(3), false, nil
	}

	c := pagination.NewScrollController(loader)
	_, err := c.LoadMore(context.Background())
	require.ErrorIs(t, err, loadErr)

	// Ошибка не продвигает страницу: повтор запрашивает ту же страницу
	batch, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 3)
	require.Equal(t, 2, calls)
}
