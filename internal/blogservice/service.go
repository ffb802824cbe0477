package blogservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mycogenesis/contenthub/internal/common"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	statisticsCacheTime = 30 * time.Second
)

func NewBlogService(db *sql.DB, c *common.Cache, logger *slog.Logger) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c, logger: logger}
}

// logAdvisories reports soft rule violations without failing the write.
func (s *BlogService) logAdvisories(v *common.Validator) {
	for field, msg := range v.Warnings {
		s.logger.Warn("content advisory", slog.String("field", field), slog.String("message", msg))
	}
}

// CreatePost validates, sanitizes, checks slug uniqueness, and persists a new
// post. Status defaults to draft.
func (s *BlogService) CreatePost(ctx context.Context, post *BlogPost) (int, error) {
	if post.Status == "" {
		post.Status = StatusDraft
	}

	v := common.NewValidator()
	validatePost(v, post)
	if !v.Valid() {
		return 0, v.ValidationError()
	}
	s.logAdvisories(v)

	post.Sanitize()

	exists, err := s.m.slugExists(ctx, post.Slug, 0)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateSlug
	}

	if err := s.m.insert(ctx, post); err != nil {
		return 0, err
	}

	s.invalidate(post.ID, post.Slug)

	return post.ID, nil
}

// UpdatePost validates, sanitizes, and persists an edit. The uniqueness check
// excludes the post itself so saving an unchanged slug succeeds. The stored
// author snapshot and creation time are preserved.
func (s *BlogService) UpdatePost(ctx context.Context, post *BlogPost) error {
	v := common.NewValidator()
	validateInt(v, post.ID, "id")
	validatePost(v, post)
	if !v.Valid() {
		return v.ValidationError()
	}
	s.logAdvisories(v)

	post.Sanitize()

	stored, err := s.m.getPostByID(ctx, post.ID)
	if err != nil {
		return err
	}
	post.Author = stored.Author
	post.CreatedAt = stored.CreatedAt
	if post.Version == 0 {
		post.Version = stored.Version
	}

	exists, err := s.m.slugExists(ctx, post.Slug, post.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateSlug
	}

	if err := s.m.update(ctx, post); err != nil {
		return err
	}

	s.invalidate(post.ID, post.Slug)

	return nil
}

// PublishPost transitions a post to published, stamping published_at on the
// first publish only.
func (s *BlogService) PublishPost(ctx context.Context, id int) (*BlogPost, error) {
	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Status = StatusPublished
	if !post.PublishedAt.Valid {
		post.PublishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	post.ScheduledFor = sql.NullTime{}

	if err := s.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// SchedulePost marks a post for publication at a future time. The scheduler
// sweep flips it to published when the time arrives.
func (s *BlogService) SchedulePost(ctx context.Context, id int, when time.Time) (*BlogPost, error) {
	if !when.After(time.Now()) {
		v := common.NewValidator()
		v.AddError("scheduled_for", "must be in the future")
		return nil, v.ValidationError()
	}

	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Status = StatusScheduled
	post.ScheduledFor = sql.NullTime{Time: when, Valid: true}

	if err := s.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// ArchivePost is the soft delete: the post stays in the store with status
// archived.
func (s *BlogService) ArchivePost(ctx context.Context, id int) (*BlogPost, error) {
	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Status = StatusArchived

	if err := s.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// DeletePost hard-deletes a post from the store.
func (s *BlogService) DeletePost(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.m.deletePost(ctx, id); err != nil {
		return err
	}

	s.invalidate(post.ID, post.Slug)

	return nil
}

func (s *BlogService) GetPost(ctx context.Context, id int) (*BlogPost, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyPost(id)); ok {
			if p, ok := cached.(*BlogPost); ok {
				return p, nil
			}
		}
	}

	post, err := s.m.getPostByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyPost(id), post)
	}

	return post, nil
}

func (s *BlogService) GetPostBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	v := common.NewValidator()
	v.Check(slug != "", "slug", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyPostBySlug(slug)); ok {
			if p, ok := cached.(*BlogPost); ok {
				return p, nil
			}
		}
	}

	post, err := s.m.getPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyPostBySlug(slug), post)
	}

	return post, nil
}

// IncrementViewCount is best-effort: a failed increment is logged and
// swallowed so it never disrupts the reading path.
func (s *BlogService) IncrementViewCount(ctx context.Context, id int) {
	if err := s.m.incrementViewCount(ctx, id); err != nil {
		s.logger.Error("could not increment view count", slog.Int("post_id", id), slog.String("error", err.Error()))
	}

	if s.c != nil {
		s.c.Delete(common.CacheKeyPost(id))
	}
}

// GetPosts returns one page of posts and the cursor for the next page.
func (s *BlogService) GetPosts(ctx context.Context, opts ListOptions) (*Page, error) {
	if opts.Limit < 1 {
		opts.Limit = defaultPageLimit
	}
	if opts.Limit > maxPageLimit {
		opts.Limit = maxPageLimit
	}
	if _, ok := sortColumns[opts.SortField]; !ok {
		opts.SortField = "created_at"
	}
	if opts.SortDir != SortAsc {
		opts.SortDir = SortDesc
	}

	posts, err := s.m.getPosts(ctx, opts)
	if err != nil {
		return nil, err
	}

	page := &Page{Posts: posts}

	if len(posts) == opts.Limit {
		last := posts[len(posts)-1]
		value := last.CreatedAt
		if opts.SortField == "published_at" {
			value = time.Unix(0, 0)
			if last.PublishedAt.Valid {
				value = last.PublishedAt.Time
			}
		}
		page.NextCursor = encodeCursor(pageCursor{Value: value, ID: last.ID})
	}

	return page, nil
}

// DueScheduledPosts returns the ids of scheduled posts whose publication time
// has arrived.
func (s *BlogService) DueScheduledPosts(ctx context.Context, now time.Time) ([]int, error) {
	return s.m.dueScheduledPosts(ctx, now)
}

func (s *BlogService) GetStatistics(ctx context.Context) (*Statistics, error) {
	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyPostStatistics()); ok {
			if stats, ok := cached.(*Statistics); ok {
				return stats, nil
			}
		}
	}

	stats, err := s.m.getStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyPostStatistics(), stats, statisticsCacheTime)
	}

	return stats, nil
}

func (s *BlogService) invalidate(id int, slug string) {
	if s.c == nil {
		return
	}

	s.c.Delete(common.CacheKeyPost(id))
	s.c.Delete(common.CacheKeyPostBySlug(slug))
	s.c.Delete(common.CacheKeyPostStatistics())
}
