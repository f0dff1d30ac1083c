package store

import (
	"context"
	"time"
)

var (
	ContextTimeout = time.Duration(20) * time.Second
)

const DefaultPageSize = 500

// Page is a keyset page request. Documents with an id greater than After are
// returned in ascending id order.
type Page struct {
	After string
	Limit int
}

func FirstPage(limit int) Page {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return Page{Limit: limit}
}

func (p Page) WithAfter(after string) Page {
	p.After = after
	return p
}

func NewDbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ContextTimeout)
}
