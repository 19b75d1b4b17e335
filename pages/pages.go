// Package pages renders the HTML pages shown to the shopper: the checkout
// page hosting the provider widget and the result pages reached at the end of
// the payment flow.
package pages

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/vocdoni/checkout-demo/errors"
	"go.vocdoni.io/dvote/log"
)

// TemplatesDir is the directory, relative to the assets filesystem, that
// holds the page templates.
const TemplatesDir = "templates"

// PageFile represents a page template key. Every page template should have a
// key that identifies it, which is the filename without the extension.
type PageFile string

const (
	// CheckoutPage hosts the payment widget.
	CheckoutPage PageFile = "payment"
	// ResultPage is shown when the payment reaches a terminal outcome.
	ResultPage PageFile = "result"
)

var (
	mtx       sync.RWMutex
	available map[PageFile]*template.Template
)

// Load parses every ".html" file found under TemplatesDir in the filesystem
// provided, replacing the templates loaded before.
func Load(fsys fs.FS) error {
	parsed := make(map[PageFile]*template.Template)
	if err := fs.WalkDir(fsys, TemplatesDir, func(fPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		tmpl, err := template.ParseFS(fsys, fPath)
		if err != nil {
			return fmt.Errorf("cannot parse page template %s: %w", fPath, err)
		}
		parsed[PageFile(strings.TrimSuffix(path.Base(fPath), ".html"))] = tmpl
		return nil
	}); err != nil {
		return err
	}
	mtx.Lock()
	defer mtx.Unlock()
	available = parsed
	return nil
}

// Available returns the keys of the loaded page templates.
func Available() []PageFile {
	mtx.RLock()
	defer mtx.RUnlock()
	keys := make([]PageFile, 0, len(available))
	for k := range available {
		keys = append(keys, k)
	}
	return keys
}

// Exec executes the page template with the data provided.
func (p PageFile) Exec(data any) ([]byte, error) {
	mtx.RLock()
	tmpl, ok := available[p]
	mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("page template %q not found", p)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the page into the response with the status provided. The
// page is rendered before writing, so a template failure results in a plain
// internal server error.
func (p PageFile) Write(w http.ResponseWriter, status int, data any) {
	body, err := p.Exec(data)
	if err != nil {
		errors.ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}
