package blogservice

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mycogenesis/contenthub/internal/common"
)

func setupTestBlogService(t *testing.T) (*BlogService, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewBlogService(db, cache, logger), db
}

func testPost(title string) *BlogPost {
	return &BlogPost{
		Title:   title,
		Content: "<p>Hi</p>",
		Author:  Author{ID: 1, Name: "testuser", Email: "testuser@example.com"},
	}
}

func TestCreatePostDefaults(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	post := testPost("Hello World")

	id, err := s.CreatePost(ctx, post)
	assert.NoError(t, err)
	assert.NotZero(t, id)

	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, "hello-world", stored.Slug)
	assert.Equal(t, "Hi", stored.Excerpt)
	assert.Equal(t, 0, stored.ViewCount)
	assert.False(t, stored.Featured)
	assert.False(t, stored.PublishedAt.Valid)
	assert.Equal(t, 1, stored.Version)
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	_, err = s.CreatePost(ctx, testPost("Hello World"))
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// an explicit slug that collides is also rejected
	post := testPost("A Different Title")
	post.Slug = "hello-world"
	_, err = s.CreatePost(ctx, post)
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestCreatePostValidation(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, &BlogPost{})

	var validationErr common.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "title")
	assert.Contains(t, validationErr.Errors, "content")
	assert.Contains(t, validationErr.Errors, "author.id")
}

func TestUpdatePost(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)

	edit := *stored
	edit.Title = "Hello World Revisited"
	edit.Slug = ""
	edit.Author = Author{ID: 99, Name: "impostor", Email: "impostor@example.com"}

	err = s.UpdatePost(ctx, &edit)
	assert.NoError(t, err)

	updated, err := s.GetPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "Hello World Revisited", updated.Title)
	assert.Equal(t, "hello-world-revisited", updated.Slug)
	assert.Equal(t, 2, updated.Version)

	// the author snapshot and creation time never change after creation
	assert.Equal(t, stored.Author, updated.Author)
	assert.True(t, stored.CreatedAt.Equal(updated.CreatedAt))
}

func TestUpdatePostKeepOwnSlug(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)

	// saving without changing the slug must not trip the uniqueness check
	edit := *stored
	edit.Content = "<p>Edited</p>"
	err = s.UpdatePost(ctx, &edit)
	assert.NoError(t, err)
}

func TestUpdatePostSlugConflict(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, testPost("First Post"))
	assert.NoError(t, err)

	id, err := s.CreatePost(ctx, testPost("Second Post"))
	assert.NoError(t, err)

	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)

	edit := *stored
	edit.Slug = "first-post"
	err = s.UpdatePost(ctx, &edit)
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestUpdatePostEditConflict(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)

	first := *stored
	first.Title = "First Editor Wins"
	first.Slug = ""
	err = s.UpdatePost(ctx, &first)
	assert.NoError(t, err)

	// a second edit from the same stale version loses
	second := *stored
	second.Title = "Second Editor Loses"
	second.Slug = ""
	err = s.UpdatePost(ctx, &second)
	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestPublishPost(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	post, err := s.PublishPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, StatusPublished, post.Status)
	assert.True(t, post.PublishedAt.Valid)
	assert.False(t, post.ScheduledFor.Valid)

	firstPublished := post.PublishedAt.Time

	// publishing again keeps the original timestamp
	post, err = s.PublishPost(ctx, id)
	assert.NoError(t, err)
	assert.True(t, post.PublishedAt.Time.Equal(firstPublished))
}

func TestSchedulePost(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	_, err = s.SchedulePost(ctx, id, time.Now().Add(-time.Hour))
	var validationErr common.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Errors, "scheduled_for")

	when := time.Now().Add(24 * time.Hour)
	post, err := s.SchedulePost(ctx, id, when)
	assert.NoError(t, err)
	assert.Equal(t, StatusScheduled, post.Status)
	assert.True(t, post.ScheduledFor.Valid)
}

func TestArchivePost(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	post, err := s.ArchivePost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, StatusArchived, post.Status)

	// archived posts stay in the store
	stored, err := s.GetPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, StatusArchived, stored.Status)
}

func TestDeletePost(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	err = s.DeletePost(ctx, id)
	assert.NoError(t, err)

	_, err = s.GetPost(ctx, id)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	err = s.DeletePost(ctx, id)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetPostBySlug(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	post, err := s.GetPostBySlug(ctx, "hello-world")
	assert.NoError(t, err)
	assert.Equal(t, "Hello World", post.Title)

	_, err = s.GetPostBySlug(ctx, "no-such-slug")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestIncrementViewCount(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Hello World"))
	assert.NoError(t, err)

	s.IncrementViewCount(ctx, id)
	s.IncrementViewCount(ctx, id)

	post, err := s.GetPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, 2, post.ViewCount)

	// a missing post never disrupts the caller
	s.IncrementViewCount(ctx, 9999)
}

func TestGetPostsPagination(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	var ids []int
	for i := 1; i <= 5; i++ {
		id, err := s.CreatePost(ctx, testPost(fmt.Sprintf("Post Number %d", i)))
		assert.NoError(t, err)
		ids = append(ids, id)
	}

	seen := make(map[int]bool)
	cursor := ""
	pages := 0

	for {
		page, err := s.GetPosts(ctx, ListOptions{Cursor: cursor, Limit: 2})
		assert.NoError(t, err)

		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %d appeared on two pages", p.ID)
			seen[p.ID] = true
		}

		pages++
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, len(ids))
}

func TestGetPostsFilters(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	draftID, err := s.CreatePost(ctx, testPost("Draft Post"))
	assert.NoError(t, err)

	publishedID, err := s.CreatePost(ctx, testPost("Published Post"))
	assert.NoError(t, err)
	_, err = s.PublishPost(ctx, publishedID)
	assert.NoError(t, err)

	featured := testPost("Featured Post")
	featured.Featured = true
	featuredID, err := s.CreatePost(ctx, featured)
	assert.NoError(t, err)

	page, err := s.GetPosts(ctx, ListOptions{Filter: PostFilter{Status: StatusPublished}})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, publishedID, page.Posts[0].ID)

	isFeatured := true
	page, err = s.GetPosts(ctx, ListOptions{Filter: PostFilter{Featured: &isFeatured}})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, featuredID, page.Posts[0].ID)

	page, err = s.GetPosts(ctx, ListOptions{Filter: PostFilter{AuthorID: 999}})
	assert.NoError(t, err)
	assert.Empty(t, page.Posts)

	page, err = s.GetPosts(ctx, ListOptions{Search: "draft"})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, draftID, page.Posts[0].ID)
}

func TestGetPostsSearchByTag(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	tagged := testPost("Tagged Post")
	tagged.Tags = []string{"mycology"}
	id, err := s.CreatePost(ctx, tagged)
	assert.NoError(t, err)

	_, err = s.CreatePost(ctx, testPost("Plain Post"))
	assert.NoError(t, err)

	page, err := s.GetPosts(ctx, ListOptions{Search: "mycology"})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, id, page.Posts[0].ID)
}

func TestGetPostsInvalidCursor(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.GetPosts(ctx, ListOptions{Cursor: "not a cursor"})
	assert.Error(t, err)
}

func TestDueScheduledPosts(t *testing.T) {
	s, db := setupTestBlogService(t)
	ctx := context.Background()

	id, err := s.CreatePost(ctx, testPost("Scheduled Post"))
	assert.NoError(t, err)

	// backdate the schedule directly so the sweep sees it as due
	_, err = db.Exec(`UPDATE posts SET status = 'scheduled', scheduled_for = now() - interval '1 minute' WHERE id = $1`, id)
	assert.NoError(t, err)

	due, err := s.DueScheduledPosts(ctx, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, []int{id}, due)

	post, err := s.PublishPost(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, StatusPublished, post.Status)

	due, err = s.DueScheduledPosts(ctx, time.Now())
	assert.NoError(t, err)
	assert.Empty(t, due)
}

func TestGetStatistics(t *testing.T) {
	s, _ := setupTestBlogService(t)
	ctx := context.Background()

	_, err := s.CreatePost(ctx, testPost("Draft One"))
	assert.NoError(t, err)

	id, err := s.CreatePost(ctx, testPost("Published One"))
	assert.NoError(t, err)
	_, err = s.PublishPost(ctx, id)
	assert.NoError(t, err)

	s.IncrementViewCount(ctx, id)
	s.IncrementViewCount(ctx, id)
	s.IncrementViewCount(ctx, id)

	stats, err := s.GetStatistics(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 1, stats.Drafts)
	assert.Equal(t, 3, stats.TotalViews)
}
