package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadPath(t *testing.T) {
	assert.Equal(t, "/uploads", uploadPath("/uploads"))
	assert.Equal(t, "/static/img", uploadPath("https://cdn.test/static/img"))
	assert.Equal(t, "/uploads", uploadPath("https://cdn.test"))
}
