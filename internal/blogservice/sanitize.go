package blogservice

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var contentPolicy = bluemonday.UGCPolicy()

// normalizeTags trims, lowercases, drops empties, and deduplicates keeping
// first-occurrence order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}

	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// Sanitize normalizes and derives fields before validation and persistence.
// Running it on an already-sanitized post is a no-op.
func (p *BlogPost) Sanitize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = contentPolicy.Sanitize(p.Content)

	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}

	if p.Excerpt == "" {
		p.Excerpt = ExcerptFromHTML(p.Content, DefaultExcerptLength)
	}

	p.Tags = normalizeTags(p.Tags)
	p.SEO.Keywords = normalizeTags(p.SEO.Keywords)

	if p.FeaturedImage.URL != "" && p.FeaturedImage.Alt == "" {
		p.FeaturedImage.Alt = p.Title
	}
}
