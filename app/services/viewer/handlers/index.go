package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
)

// index renders the dashboard page with the pool location baked in so
// the browser knows where the API and the events websocket live.
type index struct {
	tmpl    *template.Template
	poolURL string
}

func newIndex(poolURL string) (*index, error) {
	data, err := os.ReadFile("app/services/viewer/assets/views/index.html")
	if err != nil {
		return nil, fmt.Errorf("open index page: %w", err)
	}

	tmpl, err := template.New("index").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	return &index{tmpl: tmpl, poolURL: poolURL}, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vars := struct {
		PoolURL string
	}{
		PoolURL: ig.poolURL,
	}

	var markup bytes.Buffer
	if err := ig.tmpl.Execute(&markup, vars); err != nil {
		return fmt.Errorf("executing index template: %w", err)
	}

	io.Copy(w, &markup)

	return nil
}
