package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorAccumulates(t *testing.T) {
	v := NewValidator()

	v.Check(false, "title", "must be provided")
	v.Check(false, "content", "must be provided")
	v.Check(true, "author", "must be provided")

	assert.False(t, v.Valid())
	assert.Len(t, v.Errors, 2)
	assert.Equal(t, "must be provided", v.Errors["title"])
	assert.NotContains(t, v.Errors, "author")
}

func TestValidatorFirstMessageWins(t *testing.T) {
	v := NewValidator()

	v.AddError("title", "first message")
	v.AddError("title", "second message")

	assert.Equal(t, "first message", v.Errors["title"])
}

func TestValidatorWarnings(t *testing.T) {
	v := NewValidator()

	v.Warn(false, "seo.meta_title", "should be shorter")
	v.Warn(true, "seo.meta_description", "should be shorter")

	// warnings never fail validation
	assert.True(t, v.Valid())
	assert.Len(t, v.Warnings, 1)
	assert.Equal(t, "should be shorter", v.Warnings["seo.meta_title"])
}

func TestValidationErrorString(t *testing.T) {
	v := NewValidator()
	v.AddError("title", "must be provided")
	v.AddError("author.id", "must be provided")

	err := v.ValidationError()
	assert.EqualError(t, err, "validation errors: author.id: must be provided; title: must be provided")
}

func TestPermittedValue(t *testing.T) {
	assert.True(t, PermittedValue("draft", "draft", "published"))
	assert.False(t, PermittedValue("deleted", "draft", "published"))
	assert.True(t, PermittedValue(2, 1, 2, 3))
	assert.False(t, PermittedValue(4, 1, 2, 3))
}
