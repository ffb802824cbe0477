package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/mycogenesis/contenthub/internal/common"
)

// Status is the lifecycle state of a blog post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusArchived  Status = "archived"
)

// Author is a denormalized snapshot of the writing account, frozen at
// creation time.
type Author struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type FeaturedImage struct {
	URL     string `json:"url"`
	Alt     string `json:"alt"`
	Caption string `json:"caption"`
}

type SEO struct {
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
}

type BlogPost struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	// Content is stored as sanitized HTML.
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt"`
	Author        Author        `json:"author"`
	Category      string        `json:"category"`
	Tags          []string      `json:"tags"`
	FeaturedImage FeaturedImage `json:"featured_image"`
	SEO           SEO           `json:"seo"`
	Status        Status        `json:"status"`
	PublishedAt   sql.NullTime  `json:"published_at"`
	ScheduledFor  sql.NullTime  `json:"scheduled_for"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	ViewCount     int           `json:"view_count"`
	Featured      bool          `json:"featured"`
	Version       int           `json:"version"`
}

// CategoryKind separates blog and product categories.
type CategoryKind string

const (
	CategoryKindBlog    CategoryKind = "blog"
	CategoryKindProduct CategoryKind = "product"
)

type Category struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Kind        CategoryKind `json:"kind"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PostFilter holds the equality filters a listing query supports.
type PostFilter struct {
	Status   Status
	Category string
	AuthorID int
	Featured *bool
}

// ListOptions controls filtering, ordering, search, and cursor pagination for
// post listings. Search runs store-side against the full corpus. Cursor is an
// opaque token from a previous page's response.
type ListOptions struct {
	Filter    PostFilter
	SortField string
	SortDir   SortDirection
	Search    string
	Cursor    string
	Limit     int
}

// Page is one page of results plus the cursor for the next one. NextCursor is
// empty on the last page.
type Page struct {
	Posts      []BlogPost `json:"posts"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type Statistics struct {
	Published  int `json:"published"`
	Drafts     int `json:"drafts"`
	Total      int `json:"total"`
	TotalViews int `json:"total_views"`
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	c      *common.Cache
	logger *slog.Logger
}
