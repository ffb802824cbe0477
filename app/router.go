package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// user service. httprouter cannot mix a wildcard with static siblings in
	// the same segment, so id lookups live under their own prefix.
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/password", app.requireAuthUser(app.updateUserPasswordHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/navigation", app.requireAuthUser(app.navigationHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/id/:id", app.requireActivatedUser(app.getUserHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/id/:id/role", app.requireActivatedUser(app.updateUserRoleHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/id/:id/deactivate", app.requireActivatedUser(app.deactivateUserHandler))

	// content service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireActivatedUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/statistics", app.requireActivatedUser(app.statisticsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/slug/:slug", app.getPostBySlugHandler)
	router.HandlerFunc(http.MethodGet, "/v1/posts/id/:id", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/id/:id", app.requireActivatedUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/id/:id", app.requireActivatedUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodPut, "/v1/posts/id/:id/publish", app.requireActivatedUser(app.publishPostHandler))
	router.HandlerFunc(http.MethodPut, "/v1/posts/id/:id/schedule", app.requireActivatedUser(app.schedulePostHandler))
	router.HandlerFunc(http.MethodPut, "/v1/posts/id/:id/archive", app.requireActivatedUser(app.archivePostHandler))
	router.HandlerFunc(http.MethodPost, "/v1/posts/id/:id/views", app.incrementViewCountHandler)

	// categories
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoriesHandler)
	router.HandlerFunc(http.MethodPost, "/v1/categories", app.requireActivatedUser(app.createCategoryHandler))
	router.HandlerFunc(http.MethodPut, "/v1/categories/:id", app.requireActivatedUser(app.updateCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/categories/:id", app.requireActivatedUser(app.deleteCategoryHandler))

	return app.recoverPanic(app.logRequest(app.rateLimit(app.authenticate(router))))
}
