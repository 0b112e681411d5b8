package web

import (
	"embed"
	"html/template"
)

//go:embed templates
var FS embed.FS

var pageTmpl = template.Must(template.ParseFS(FS, "templates/index.html"))
