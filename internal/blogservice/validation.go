package blogservice

import (
	"time"

	"github.com/mycogenesis/contenthub/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(len(title) <= 200, "title", "must not be more than 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateAuthor(v *common.Validator, author Author) {
	v.Check(author.ID > 0, "author.id", "must be provided")
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(common.PermittedValue(status, StatusDraft, StatusPublished, StatusScheduled, StatusArchived), "status", "must be one of draft, published, scheduled, or archived")
}

func validateCategory(v *common.Validator, category string) {
	v.Check(len(category) <= 50, "category", "must not be more than 50 characters long")
}

func validateTags(v *common.Validator, tags []string) {
	v.Check(len(tags) <= 10, "tags", "must not contain more than 10 tags")
	for _, tag := range tags {
		if len(tag) > 30 {
			v.AddError("tags", "each tag must not be more than 30 characters long")
			break
		}
	}
}

func validateSEO(v *common.Validator, seo SEO) {
	// search engines truncate long meta text, so the length limits advise
	// rather than block
	v.Warn(len(seo.MetaTitle) <= 60, "seo.meta_title", "should be 60 characters or less")
	v.Warn(len(seo.MetaDescription) <= 160, "seo.meta_description", "should be 160 characters or less")
	v.Check(len(seo.Keywords) <= 10, "seo.keywords", "must not contain more than 10 keywords")
}

func validateSchedule(v *common.Validator, post *BlogPost, now time.Time) {
	if post.Status != StatusScheduled {
		return
	}

	if !post.ScheduledFor.Valid {
		v.AddError("scheduled_for", "must be provided for scheduled posts")
		return
	}

	v.Check(post.ScheduledFor.Time.After(now), "scheduled_for", "must be in the future")
}

// validatePost accumulates every violated rule rather than failing on the
// first.
func validatePost(v *common.Validator, post *BlogPost) {
	validateTitle(v, post.Title)
	validateContent(v, post.Content)
	validateAuthor(v, post.Author)
	validateStatus(v, post.Status)
	validateCategory(v, post.Category)
	validateTags(v, post.Tags)
	validateSEO(v, post.SEO)
	validateSchedule(v, post, time.Now())
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
