package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/mycogenesis/contenthub/internal/blogservice"
	"github.com/mycogenesis/contenthub/internal/common"
	"github.com/mycogenesis/contenthub/internal/userservice"
)

type postRequest struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Featured bool     `json:"featured"`

	FeaturedImage struct {
		URL     string `json:"url"`
		Alt     string `json:"alt"`
		Caption string `json:"caption"`
	} `json:"featured_image"`

	SEO struct {
		MetaTitle       string   `json:"meta_title"`
		MetaDescription string   `json:"meta_description"`
		Keywords        []string `json:"keywords"`
	} `json:"seo"`
}

func (input *postRequest) toPost() *blogservice.BlogPost {
	return &blogservice.BlogPost{
		Title:    input.Title,
		Slug:     input.Slug,
		Content:  input.Content,
		Excerpt:  input.Excerpt,
		Category: input.Category,
		Tags:     input.Tags,
		Featured: input.Featured,
		FeaturedImage: blogservice.FeaturedImage{
			URL:     input.FeaturedImage.URL,
			Alt:     input.FeaturedImage.Alt,
			Caption: input.FeaturedImage.Caption,
		},
		SEO: blogservice.SEO{
			MetaTitle:       input.SEO.MetaTitle,
			MetaDescription: input.SEO.MetaDescription,
			Keywords:        input.SEO.Keywords,
		},
	}
}

// postErrorResponse maps manager and service errors onto HTTP statuses.
func (app *application) postErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, blogservice.ErrDuplicateSlug):
		app.conflictErrorResponse(w, r, "a post with this slug already exists")
	case errors.Is(err, blogservice.ErrDuplicateCategory):
		app.conflictErrorResponse(w, r, "a category with this name already exists")
	case errors.Is(err, blogservice.ErrEditConflict):
		app.editConflictErrorResponse(w, r)
	case errors.Is(err, blogservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, userservice.ErrPermissionDenied), errors.Is(err, userservice.ErrUserNotActive):
		app.forbiddenErrorResponse(w, r)
	case errors.Is(err, userservice.ErrNotFound):
		app.invalidAuthenticationTokenResponse(w, r)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input postRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post := input.toPost()
	post.Author = blogservice.Author{
		ID:    user.ID,
		Name:  user.Username,
		Email: user.Email,
	}

	id, err := app.manager.CreatePost(r.Context(), user.ID, post)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post, "id": id}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input struct {
		postRequest
		Version int `json:"version"`
	}

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post := input.toPost()
	post.ID = id
	post.Version = input.Version

	stored, err := app.blogService.GetPost(r.Context(), id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}
	post.Status = stored.Status
	post.PublishedAt = stored.PublishedAt
	post.ScheduledFor = stored.ScheduledFor

	err = app.manager.UpdatePost(r.Context(), user.ID, post)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	post, err := app.blogService.GetPost(r.Context(), id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getPostBySlugHandler(w http.ResponseWriter, r *http.Request) {
	params := httprouter.ParamsFromContext(r.Context())
	slug := params.ByName("slug")

	post, err := app.blogService.GetPostBySlug(r.Context(), slug)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.manager.DeletePost(r.Context(), user.ID, id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) publishPostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.manager.PublishPost(r.Context(), user.ID, id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type schedulePostRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func (app *application) schedulePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input schedulePostRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.manager.SchedulePost(r.Context(), user.ID, id, input.ScheduledFor)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) archivePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.manager.ArchivePost(r.Context(), user.ID, id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// incrementViewCountHandler is fire-and-forget: it always responds 202.
func (app *application) incrementViewCountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	app.blogService.IncrementViewCount(r.Context(), id)

	err = app.writeJSON(w, http.StatusAccepted, envelope{"message": "view recorded"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	opts := blogservice.ListOptions{
		SortField: app.readString(r, "sort", "created_at"),
		SortDir:   blogservice.SortDirection(app.readString(r, "dir", "desc")),
		Search:    app.readString(r, "search", ""),
		Cursor:    app.readString(r, "cursor", ""),
	}

	limit, err := app.readInt(r, "limit", 10)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	opts.Limit = limit

	opts.Filter.Status = blogservice.Status(app.readString(r, "status", ""))
	opts.Filter.Category = app.readString(r, "category", "")

	authorID, err := app.readInt(r, "author", 0)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}
	opts.Filter.AuthorID = authorID

	if s := app.readString(r, "featured", ""); s != "" {
		featured, err := strconv.ParseBool(s)
		if err != nil {
			app.badRequestErrorResponse(w, r, errors.New("invalid featured parameter"))
			return
		}
		opts.Filter.Featured = &featured
	}

	page, err := app.blogService.GetPosts(r.Context(), opts)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": page.Posts, "next_cursor": page.NextCursor}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.userService.ValidateAccess(r.Context(), user.ID, userservice.PermissionAnalyticsView)
	if err != nil {
		app.userAccessErrorResponse(w, r, err)
		return
	}

	stats, err := app.blogService.GetStatistics(r.Context())
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"statistics": stats}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
