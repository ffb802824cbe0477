package blogservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mycogenesis/contenthub/internal/common"
	"github.com/mycogenesis/contenthub/internal/userservice"
)

// Event names fanned out after a committed mutation.
const (
	EventPostCreated     = "postCreated"
	EventPostUpdated     = "postUpdated"
	EventPostDeleted     = "postDeleted"
	EventPostArchived    = "postArchived"
	EventPostPublished   = "postPublished"
	EventPostScheduled   = "postScheduled"
	EventCategoryUpdated = "categoryUpdated"
)

// eventKeys maps event names to broker routing keys. Events without a bound
// queue are dropped by the exchange.
var eventKeys = map[string]common.BindingKey{
	EventPostCreated:     "post.created",
	EventPostUpdated:     "post.updated",
	EventPostDeleted:     "post.deleted",
	EventPostArchived:    "post.archived",
	EventPostPublished:   common.PostPublishedKey,
	EventPostScheduled:   "post.scheduled",
	EventCategoryUpdated: "category.updated",
}

type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// PostEventPayload is the payload attached to post events.
type PostEventPayload struct {
	PostID      int    `json:"post_id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	AuthorEmail string `json:"author_email"`
	Status      Status `json:"status"`
}

type EventHandler func(Event)

// Subscription is the handle returned by Subscribe; unsubscription is by
// handle identity.
type Subscription struct {
	fn EventHandler
}

// ContentManager gates every mutating call behind a permission check and
// notifies listeners and the broker after each committed mutation.
type ContentManager struct {
	posts  *BlogService
	users  *userservice.UserService
	mb     common.MessageProducer
	logger *slog.Logger

	mu   sync.Mutex
	subs []*Subscription
}

func NewContentManager(posts *BlogService, users *userservice.UserService, mb common.MessageProducer, logger *slog.Logger) *ContentManager {
	return &ContentManager{
		posts:  posts,
		users:  users,
		mb:     mb,
		logger: logger,
	}
}

// Subscribe registers a listener and returns its handle.
func (cm *ContentManager) Subscribe(fn EventHandler) *Subscription {
	sub := &Subscription{fn: fn}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.subs = append(cm.subs, sub)

	return sub
}

// Unsubscribe removes a listener by handle. Removing an unknown handle is a
// no-op.
func (cm *ContentManager) Unsubscribe(sub *Subscription) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for i, s := range cm.subs {
		if s == sub {
			cm.subs = append(cm.subs[:i], cm.subs[i+1:]...)
			return
		}
	}
}

// notify invokes every listener in registration order. A panicking listener
// is logged and never interrupts the others or the caller. The event is also
// published on the broker.
func (cm *ContentManager) notify(ctx context.Context, name string, payload any) {
	event := Event{
		ID:         uuid.NewString(),
		Name:       name,
		OccurredAt: time.Now(),
		Payload:    payload,
	}

	cm.mu.Lock()
	subs := make([]*Subscription, len(cm.subs))
	copy(subs, cm.subs)
	cm.mu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					cm.logger.Error("event listener panicked", slog.String("event", name), slog.Any("panic", r))
				}
			}()
			sub.fn(event)
		}()
	}

	if cm.mb == nil {
		return
	}

	key, ok := eventKeys[name]
	if !ok {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		cm.logger.Error("could not marshal event", slog.String("event", name), slog.String("error", err.Error()))
		return
	}

	if err := cm.mb.Publish(ctx, body, key, common.ContentExchange); err != nil {
		cm.logger.Error("could not publish event", slog.String("event", name), slog.String("error", err.Error()))
	}
}

func postPayload(p *BlogPost) PostEventPayload {
	return PostEventPayload{
		PostID:      p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		AuthorEmail: p.Author.Email,
		Status:      p.Status,
	}
}

// CreatePost creates a post on behalf of actorID. The permission check runs
// before the service is touched, so a denied call has no side effects.
func (cm *ContentManager) CreatePost(ctx context.Context, actorID int, post *BlogPost) (int, error) {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogCreate); err != nil {
		return 0, err
	}

	id, err := cm.posts.CreatePost(ctx, post)
	if err != nil {
		return 0, err
	}

	cm.notify(ctx, EventPostCreated, postPayload(post))

	return id, nil
}

func (cm *ContentManager) UpdatePost(ctx context.Context, actorID int, post *BlogPost) error {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogEdit); err != nil {
		return err
	}

	if err := cm.posts.UpdatePost(ctx, post); err != nil {
		return err
	}

	cm.notify(ctx, EventPostUpdated, postPayload(post))

	return nil
}

func (cm *ContentManager) PublishPost(ctx context.Context, actorID int, id int) (*BlogPost, error) {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogEdit); err != nil {
		return nil, err
	}

	post, err := cm.posts.PublishPost(ctx, id)
	if err != nil {
		return nil, err
	}

	cm.notify(ctx, EventPostPublished, postPayload(post))

	return post, nil
}

func (cm *ContentManager) SchedulePost(ctx context.Context, actorID int, id int, when time.Time) (*BlogPost, error) {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogEdit); err != nil {
		return nil, err
	}

	post, err := cm.posts.SchedulePost(ctx, id, when)
	if err != nil {
		return nil, err
	}

	cm.notify(ctx, EventPostScheduled, postPayload(post))

	return post, nil
}

func (cm *ContentManager) ArchivePost(ctx context.Context, actorID int, id int) (*BlogPost, error) {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogEdit); err != nil {
		return nil, err
	}

	post, err := cm.posts.ArchivePost(ctx, id)
	if err != nil {
		return nil, err
	}

	cm.notify(ctx, EventPostArchived, postPayload(post))

	return post, nil
}

func (cm *ContentManager) DeletePost(ctx context.Context, actorID int, id int) error {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionBlogDelete); err != nil {
		return err
	}

	post, err := cm.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if err := cm.posts.DeletePost(ctx, id); err != nil {
		return err
	}

	cm.notify(ctx, EventPostDeleted, postPayload(post))

	return nil
}

func (cm *ContentManager) CreateCategory(ctx context.Context, actorID int, c *Category) (int, error) {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionCategoriesManage); err != nil {
		return 0, err
	}

	id, err := cm.posts.CreateCategory(ctx, c)
	if err != nil {
		return 0, err
	}

	cm.notify(ctx, EventCategoryUpdated, c)

	return id, nil
}

func (cm *ContentManager) UpdateCategory(ctx context.Context, actorID int, c *Category) error {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionCategoriesManage); err != nil {
		return err
	}

	if err := cm.posts.UpdateCategory(ctx, c); err != nil {
		return err
	}

	cm.notify(ctx, EventCategoryUpdated, c)

	return nil
}

func (cm *ContentManager) DeleteCategory(ctx context.Context, actorID int, id int) error {
	if err := cm.users.ValidateAccess(ctx, actorID, userservice.PermissionCategoriesManage); err != nil {
		return err
	}

	if err := cm.posts.DeleteCategory(ctx, id); err != nil {
		return err
	}

	cm.notify(ctx, EventCategoryUpdated, map[string]int{"id": id})

	return nil
}

// PublishDuePosts publishes every scheduled post whose time has arrived. It
// runs as the system, not a user, so there is no permission gate. Per-post
// failures are logged and the sweep continues.
func (cm *ContentManager) PublishDuePosts(ctx context.Context, now time.Time) error {
	ids, err := cm.posts.DueScheduledPosts(ctx, now)
	if err != nil {
		return err
	}

	for _, id := range ids {
		post, err := cm.posts.PublishPost(ctx, id)
		if err != nil {
			cm.logger.Error("could not publish scheduled post", slog.Int("post_id", id), slog.String("error", err.Error()))
			continue
		}

		cm.logger.Info("published scheduled post", slog.Int("post_id", id), slog.String("slug", post.Slug))
		cm.notify(ctx, EventPostPublished, postPayload(post))
	}

	return nil
}
