// Package web serves the embedded storefront page. The page is rendered
// once at startup with the publishable gateway key; everything else is
// client-side against the JSON API.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-faster/errors"
)

//go:embed index.html
var content embed.FS

// pageData is injected into the storefront template. Only publishable
// values belong here.
type pageData struct {
	RazorpayKeyID string
	StoreName     string
}

// Handler returns an http.Handler serving the storefront page at "/".
// The template is rendered eagerly so a broken build fails at startup
// rather than on first request.
func Handler(razorpayKeyID string) (http.Handler, error) {
	tmpl, err := template.ParseFS(content, "index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse storefront template")
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, pageData{
		RazorpayKeyID: razorpayKeyID,
		StoreName:     "Pickle Store",
	})
	if err != nil {
		return nil, errors.Wrap(err, "render storefront template")
	}
	page := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}), nil
}
