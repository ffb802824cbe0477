package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	testCases := []struct {
		name string
		tags []string
		want []string
	}{
		{
			name: "trim lowercase dedupe",
			tags: []string{"  Tag1  ", "tag2", "TAG1", ""},
			want: []string{"tag1", "tag2"},
		},
		{
			name: "first occurrence order kept",
			tags: []string{"zeta", "alpha", "Zeta"},
			want: []string{"zeta", "alpha"},
		},
		{
			name: "nil tags",
			tags: nil,
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeTags(tc.tags))
		})
	}
}

func TestSanitizeContent(t *testing.T) {
	p := &BlogPost{
		Title:   "Test Post",
		Content: `<p>Hello</p><script>alert('x');</script><img src="x" onerror="alert('x')">`,
		Author:  Author{ID: 1},
	}

	p.Sanitize()

	assert.NotContains(t, p.Content, "<script>")
	assert.NotContains(t, p.Content, "onerror")
	assert.Contains(t, p.Content, "<p>Hello</p>")
}

func TestSanitizeDerivesFields(t *testing.T) {
	p := &BlogPost{
		Title:   "  Test Blog Post with Special Characters!  ",
		Content: "<p>Hi</p>",
		Tags:    []string{"  Go  ", "go", "Web"},
		FeaturedImage: FeaturedImage{
			URL: "https://example.com/cover.png",
		},
	}

	p.Sanitize()

	assert.Equal(t, "Test Blog Post with Special Characters!", p.Title)
	assert.Equal(t, "test-blog-post-with-special-characters", p.Slug)
	assert.Equal(t, "Hi", p.Excerpt)
	assert.Equal(t, []string{"go", "web"}, p.Tags)
	assert.Equal(t, p.Title, p.FeaturedImage.Alt)
}

func TestSanitizeKeepsExplicitValues(t *testing.T) {
	p := &BlogPost{
		Title:   "Some Title",
		Slug:    "custom-slug",
		Content: "<p>Body text</p>",
		Excerpt: "Hand written excerpt",
		FeaturedImage: FeaturedImage{
			URL: "https://example.com/cover.png",
			Alt: "Cover art",
		},
	}

	p.Sanitize()

	assert.Equal(t, "custom-slug", p.Slug)
	assert.Equal(t, "Hand written excerpt", p.Excerpt)
	assert.Equal(t, "Cover art", p.FeaturedImage.Alt)
}

func TestSanitizeIdempotent(t *testing.T) {
	p := &BlogPost{
		Title:   "  Idempotence Check  ",
		Content: "<p>Hello <strong>World</strong></p><script>alert('x');</script>",
		Tags:    []string{"One", "one", " Two "},
		SEO:     SEO{Keywords: []string{"Key", "KEY"}},
	}

	p.Sanitize()
	first := *p
	firstTags := append([]string(nil), p.Tags...)

	p.Sanitize()

	assert.Equal(t, first.Title, p.Title)
	assert.Equal(t, first.Slug, p.Slug)
	assert.Equal(t, first.Content, p.Content)
	assert.Equal(t, first.Excerpt, p.Excerpt)
	assert.Equal(t, firstTags, p.Tags)
	assert.Equal(t, first.SEO.Keywords, p.SEO.Keywords)
}
