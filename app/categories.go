package main

import (
	"net/http"

	"github.com/mycogenesis/contenthub/internal/blogservice"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	kind := blogservice.CategoryKind(app.readString(r, "kind", string(blogservice.CategoryKindBlog)))

	categories, err := app.blogService.GetCategories(r.Context(), kind)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"categories": categories}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var input categoryRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	category := &blogservice.Category{
		Name:        input.Name,
		Description: input.Description,
		Kind:        blogservice.CategoryKind(input.Kind),
	}

	id, err := app.manager.CreateCategory(r.Context(), user.ID, category)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"category": category, "id": id}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input categoryRequest
	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	category := &blogservice.Category{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Kind:        blogservice.CategoryKind(input.Kind),
	}

	err = app.manager.UpdateCategory(r.Context(), user.ID, category)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"category": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.manager.DeleteCategory(r.Context(), user.ID, id)
	if err != nil {
		app.postErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "category deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
