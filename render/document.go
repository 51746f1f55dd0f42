package render

import (
	"embed"
	"html/template"
	"strings"

	"mdmail/models"
)

//go:embed templates/email.html templates/email.css
var templateFS embed.FS

var stylesheet = mustReadFile("templates/email.css")

type documentData struct {
	CSS       template.CSS
	Content   template.HTML
	Signature template.HTML
	Metadata  *models.Metadata
}

func parseDocumentTemplate() (*template.Template, error) {
	return template.New("email.html").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/email.html")
}

func mustReadFile(name string) string {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
