package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// index holds the loaded content of the index page so it doesn't need to be
// read from disk on every request.
type index struct {
	page []byte
}

// newIndex loads the index page content from disk.
func newIndex() (*index, error) {
	content, err := os.ReadFile("app/services/viewer/assets/views/index.html")
	if err != nil {
		return nil, fmt.Errorf("open index page: %w", err)
	}

	ig := index{
		page: content,
	}

	return &ig, nil
}

// handler writes the index page content to the response.
func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := w.Write(ig.page); err != nil {
		return fmt.Errorf("write index page: %w", err)
	}

	return nil
}
