package images_test

import (
	"testing"

	"news_surge/internal/images"
	"news_surge/internal/models"

	"github.com/stretchr/testify/require"
)

func TestResolveOrder(t *testing.T) {
	testCases := []struct {
		name     string
		article  models.Article
		expected string
	}{
		{
			name: "imageUrl wins",
			article: models.Article{
				ImageURL:   "https://cdn.example.com/a.jpg",
				URLToImage: "https://cdn.example.com/b.jpg",
			},
			expected: "https://cdn.example.com/a.jpg",
		},
		{
			name: "urlToImage when imageUrl invalid",
			article: models.Article{
				ImageURL:   "not a url",
				URLToImage: "https://cdn.example.com/b.png",
			},
			expected: "https://cdn.example.com/b.png",
		},
		{
			name: "img tag from content",
			article: models.Article{
				Content: `<p>text</p><img src="https://cdn.example.com/pic.webp" alt="">`,
			},
			expected: "https://cdn.example.com/pic.webp",
		},
		{
			name: "img tag from description when content has none",
			article: models.Article{
				Content:     "plain text only",
				Description: `<img src="https://cdn.example.com/d.gif">`,
			},
			expected: "https://cdn.example.com/d.gif",
		},
		{
			name:     "placeholder when nothing matches",
			article:  models.Article{Title: "no images here"},
			expected: images.Placeholder,
		},
		{
			name: "relative urls rejected",
			article: models.Article{
				ImageURL: "/local/a.jpg",
				Content:  `<img src="/local/b.jpg">`,
			},
			expected: images.Placeholder,
		},
		{
			name: "unknown extension rejected",
			article: models.Article{
				Content: `<img src="https://cdn.example.com/doc.pdf"><img src="https://cdn.example.com/ok.jpeg">`,
			},
			expected: "https://cdn.example.com/ok.jpeg",
		},
		{
			name: "query string after extension",
			article: models.Article{
				Content: `<img src="https://cdn.example.com/pic.jpg?w=600&amp;h=400">`,
			},
			expected: "https://cdn.example.com/pic.jpg?w=600&h=400",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, images.Resolve(&tc.article))
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	a := models.Article{
		Description: `<img src="https://cdn.example.com/one.jpg"><img src="https://cdn.example.com/two.jpg">`,
	}
	first := images.Resolve(&a)
	require.Equal(t, "https://cdn.example.com/one.jpg", first)
	require.Equal(t, first, images.Resolve(&a))
}
