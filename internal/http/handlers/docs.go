package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
)

// SpecPath is where the proxy publishes its OpenAPI document.
const SpecPath = "/v1/openapi.json"

//go:embed openapi.json
var apiSpec []byte

var docsTmpl = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} {{.Version}}</title>
<style>html, body { margin: 0; height: 100%; } redoc { display: block; min-height: 100%; }</style>
</head>
<body>
<redoc spec-url="{{.SpecURL}}" hide-download-button></redoc>
<script src="https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"></script>
</body>
</html>
`))

var (
	docsOnce sync.Once
	docsBody []byte
	docsErr  error
)

// renderDocs builds the reference page once, titled from the embedded
// document's info block.
func renderDocs() ([]byte, error) {
	docsOnce.Do(func() {
		var doc struct {
			Info struct {
				Title   string `json:"title"`
				Version string `json:"version"`
			} `json:"info"`
		}
		if docsErr = json.Unmarshal(apiSpec, &doc); docsErr != nil {
			return
		}
		var buf bytes.Buffer
		docsErr = docsTmpl.Execute(&buf, map[string]string{
			"Title":   doc.Info.Title,
			"Version": doc.Info.Version,
			"SpecURL": SpecPath,
		})
		docsBody = buf.Bytes()
	})
	return docsBody, docsErr
}

func writeStatic(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// APISpec serves the embedded OpenAPI document.
func (a *App) APISpec(w http.ResponseWriter, _ *http.Request) {
	writeStatic(w, "application/json; charset=utf-8", apiSpec)
}

// APIDocs serves a Redoc page pointing at SpecPath.
func (a *App) APIDocs(w http.ResponseWriter, _ *http.Request) {
	body, err := renderDocs()
	if err != nil {
		a.Logger.Error().Err(err).Msg("render api docs")
		a.json(w, http.StatusInternalServerError, errorResponse{Error: "docs unavailable"})
		return
	}
	writeStatic(w, "text/html; charset=utf-8", body)
}
