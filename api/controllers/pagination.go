package controllers

import (
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

type pageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

func newPageResponse[T any](items []T, next *pagination.Cursor) pageResponse[T] {
	page := pageResponse[T]{Items: items}
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		page.NextCursor = &encoded
	}
	return page
}
