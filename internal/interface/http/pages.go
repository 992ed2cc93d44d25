package http

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

//go:embed assets
var assets embed.FS

var pageTemplates = template.Must(template.ParseFS(assets, "assets/*.html"))

type pageData struct {
	Title    string
	LivePath string
	APIPath  string
}

// pageComponent renders one of the embedded page templates.
func pageComponent(name string, data pageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pageTemplates.ExecuteTemplate(w, name, data)
	})
}

func homePage() templ.Component {
	return pageComponent("home", pageData{Title: "Stryde", LivePath: livePath, APIPath: apiPrefix})
}

func loginPage() templ.Component {
	return pageComponent("login", pageData{Title: "Stryde - Login", LivePath: livePath, APIPath: apiPrefix})
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func renderPage(component templ.Component) gin.HandlerFunc {
	return gin.WrapH(templ.Handler(component))
}
