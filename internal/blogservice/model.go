package blogservice

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateSlug  = errors.New("duplicate slug")
	ErrEditConflict   = errors.New("edit conflict")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// uniqueViolation checks for a postgres unique constraint error on the named
// constraint.
func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == name
	}

	return false
}

// sortColumns maps the permitted sort fields to their SQL expressions. Only
// time-ordered fields are supported because the page cursor carries a
// timestamp.
var sortColumns = map[string]string{
	"created_at":   "created_at",
	"published_at": "coalesce(published_at, to_timestamp(0))",
}

// pageCursor is the decoded form of the opaque pagination token: the sort
// value and id of the last row on the previous page.
type pageCursor struct {
	Value time.Time `json:"v"`
	ID    int       `json:"id"`
}

func encodeCursor(c pageCursor) string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(token string) (pageCursor, error) {
	var c pageCursor

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("invalid cursor: %w", err)
	}

	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("invalid cursor: %w", err)
	}

	return c, nil
}

const postColumns = `id, title, slug, content, excerpt, author_id, author_name, author_email, category, tags,
		image_url, image_alt, image_caption, meta_title, meta_description, keywords,
		status, published_at, scheduled_for, created_at, updated_at, view_count, featured, version`

func scanPost(row interface{ Scan(...any) error }) (*BlogPost, error) {
	var p BlogPost
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt,
		&p.Author.ID, &p.Author.Name, &p.Author.Email,
		&p.Category, pq.Array(&p.Tags),
		&p.FeaturedImage.URL, &p.FeaturedImage.Alt, &p.FeaturedImage.Caption,
		&p.SEO.MetaTitle, &p.SEO.MetaDescription, pq.Array(&p.SEO.Keywords),
		&p.Status, &p.PublishedAt, &p.ScheduledFor,
		&p.CreatedAt, &p.UpdatedAt, &p.ViewCount, &p.Featured, &p.Version,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (m *BlogModel) insert(ctx context.Context, p *BlogPost) error {
	query := `
		INSERT INTO posts (title, slug, content, excerpt, author_id, author_name, author_email, category, tags,
			image_url, image_alt, image_caption, meta_title, meta_description, keywords,
			status, published_at, scheduled_for, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, view_count, created_at, updated_at, version`

	args := []any{
		p.Title, p.Slug, p.Content, p.Excerpt,
		p.Author.ID, p.Author.Name, p.Author.Email,
		p.Category, pq.Array(p.Tags),
		p.FeaturedImage.URL, p.FeaturedImage.Alt, p.FeaturedImage.Caption,
		p.SEO.MetaTitle, p.SEO.MetaDescription, pq.Array(p.SEO.Keywords),
		string(p.Status), p.PublishedAt, p.ScheduledFor, p.Featured,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "posts_slug_key"):
			return ErrDuplicateSlug
		default:
			return fmt.Errorf("could not insert post: %w", err)
		}
	}

	return nil
}

// update rewrites the mutable columns of a post. The author snapshot and
// created_at never change after creation. The version check makes the write a
// compare-and-swap: a stale version means someone else saved first.
func (m *BlogModel) update(ctx context.Context, p *BlogPost) error {
	query := `
		UPDATE posts
		SET title = $1, slug = $2, content = $3, excerpt = $4, category = $5, tags = $6,
			image_url = $7, image_alt = $8, image_caption = $9,
			meta_title = $10, meta_description = $11, keywords = $12,
			status = $13, published_at = $14, scheduled_for = $15, featured = $16,
			updated_at = now(), version = version + 1
		WHERE id = $17 AND version = $18
		RETURNING updated_at, version`

	args := []any{
		p.Title, p.Slug, p.Content, p.Excerpt, p.Category, pq.Array(p.Tags),
		p.FeaturedImage.URL, p.FeaturedImage.Alt, p.FeaturedImage.Caption,
		p.SEO.MetaTitle, p.SEO.MetaDescription, pq.Array(p.SEO.Keywords),
		string(p.Status), p.PublishedAt, p.ScheduledFor, p.Featured,
		p.ID, p.Version,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&p.UpdatedAt, &p.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		case uniqueViolation(err, "posts_slug_key"):
			return ErrDuplicateSlug
		default:
			return fmt.Errorf("could not update post: %w", err)
		}
	}

	return nil
}

func (m *BlogModel) getPostByID(ctx context.Context, id int) (*BlogPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE id = $1`

	p, err := scanPost(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("could not get post: %w", err)
		}
	}

	return p, nil
}

func (m *BlogModel) getPostBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE slug = $1`

	p, err := scanPost(m.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("could not get post: %w", err)
		}
	}

	return p, nil
}

// slugExists checks the slug against every post except excludeID, which is
// zero on create so nothing is excluded.
func (m *BlogModel) slugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM posts WHERE slug = $1 AND id <> $2
		)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check slug: %w", err)
	}

	return exists, nil
}

func (m *BlogModel) deletePost(ctx context.Context, id int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("could not delete post: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// incrementViewCount is an atomic store-side increment.
func (m *BlogModel) incrementViewCount(ctx context.Context, id int) error {
	query := `
		UPDATE posts
		SET view_count = view_count + 1
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// getPosts runs the listing query: equality filters, store-side search over
// title/excerpt/tags, keyset pagination on (sort column, id).
func (m *BlogModel) getPosts(ctx context.Context, opts ListOptions) ([]BlogPost, error) {
	sortCol, ok := sortColumns[opts.SortField]
	if !ok {
		sortCol = sortColumns["created_at"]
	}

	dir := "DESC"
	cmp := "<"
	if opts.SortDir == SortAsc {
		dir = "ASC"
		cmp = ">"
	}

	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Filter.Status != "" {
		where = append(where, "status = "+arg(string(opts.Filter.Status)))
	}
	if opts.Filter.Category != "" {
		where = append(where, "category = "+arg(opts.Filter.Category))
	}
	if opts.Filter.AuthorID != 0 {
		where = append(where, "author_id = "+arg(opts.Filter.AuthorID))
	}
	if opts.Filter.Featured != nil {
		where = append(where, "featured = "+arg(*opts.Filter.Featured))
	}

	if opts.Search != "" {
		pattern := arg("%" + opts.Search + "%")
		where = append(where, fmt.Sprintf(
			"(title ILIKE %[1]s OR excerpt ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE %[1]s))",
			pattern))
	}

	if opts.Cursor != "" {
		cursor, err := decodeCursor(opts.Cursor)
		if err != nil {
			return nil, err
		}
		where = append(where, fmt.Sprintf("(%s, id) %s (%s, %s)", sortCol, cmp, arg(cursor.Value), arg(cursor.ID)))
	}

	query := "SELECT " + postColumns + " FROM posts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT %s", sortCol, dir, dir, arg(opts.Limit))

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list posts: %w", err)
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (m *BlogModel) dueScheduledPosts(ctx context.Context, now time.Time) ([]int, error) {
	query := `
		SELECT id
		FROM posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for`

	rows, err := m.db.QueryContext(ctx, query, string(StatusScheduled), now)
	if err != nil {
		return nil, fmt.Errorf("could not list due posts: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (m *BlogModel) getStatistics(ctx context.Context) (*Statistics, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*),
			COALESCE(SUM(view_count), 0)
		FROM posts`

	var stats Statistics
	err := m.db.QueryRowContext(ctx, query).Scan(&stats.Published, &stats.Drafts, &stats.Total, &stats.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("could not get statistics: %w", err)
	}

	return &stats, nil
}
