// Package preview renders a static HTML view of a stored template.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/modules/templates"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9.,% ]+\)|[a-zA-Z]{3,20})$`)

// Renderer draws covers in a fixed pixel frame.
type Renderer struct {
	width, height float64
	tmpl          *template.Template
}

func NewRenderer(width, height float64) *Renderer {
	return &Renderer{width: width, height: height, tmpl: template.Must(template.New("cover").Parse(coverHTML))}
}

type textView struct {
	Content string
	Style   template.CSS
}

type pageView struct {
	Name        string
	Width       float64
	Height      float64
	FrontStyle  template.CSS
	Overlay     template.CSS
	Texts       []textView
	BackStyle   template.CSS
	Description template.HTML
	DescStyle   template.CSS
	AuthorTitle string
	AuthorBio   template.HTML
	AuthorStyle template.CSS
	AuthorImage string
	SpineStyle  template.CSS
}

// Render writes the HTML preview of t to w.
func (r *Renderer) Render(w io.Writer, t models.Template) error {
	c := t.CoverData
	v := pageView{
		Name:        t.Name,
		Width:       r.width,
		Height:      r.height,
		FrontStyle:  frontBackground(c.Front),
		BackStyle:   template.CSS("background:" + color(c.Back.Color.ColorCode, "#ffffff")),
		Description: markdown(c.Back.Description.Content),
		DescStyle:   blockStyle(c.Back.Description),
		AuthorTitle: c.Back.Author.Title,
		AuthorBio:   markdown(c.Back.Author.Content),
		AuthorStyle: blockStyle(c.Back.Author.TextBlock),
		AuthorImage: safeURL(c.Back.Author.ImageURL),
		SpineStyle:  template.CSS("background:" + color(c.Spine.Color.ColorCode, "#000000")),
	}
	if c.Front.BackgroundType == models.BackgroundImage && c.Front.Image.OverlayColor != "" {
		v.Overlay = template.CSS(fmt.Sprintf("background:%s;opacity:%g",
			color(c.Front.Image.OverlayColor, "#000000"), c.Front.Image.OverlayOpacity))
	}
	for _, el := range []models.TextElement{c.Front.Text.Title, c.Front.Text.SubTitle, c.Front.Text.AuthorName} {
		if strings.TrimSpace(el.Content) == "" {
			continue
		}
		style := fmt.Sprintf("left:%gpx;top:%gpx;", el.Position.X, el.Position.Y) + string(blockStyle(el.TextBlock))
		v.Texts = append(v.Texts, textView{Content: el.Content, Style: template.CSS(style)})
	}
	return r.tmpl.Execute(w, v)
}

func frontBackground(f models.Front) template.CSS {
	switch f.BackgroundType {
	case models.BackgroundGradient:
		return template.CSS(fmt.Sprintf("background:linear-gradient(%gdeg,%s,%s)",
			f.Gradient.Direction, color(f.Gradient.From, "#000000"), color(f.Gradient.To, "#ffffff")))
	case models.BackgroundImage:
		if u := safeURL(f.Image.ImageURL); u != "" {
			return template.CSS(fmt.Sprintf("background:url(%q) center/cover no-repeat", u))
		}
	}
	return template.CSS("background:" + color(f.Color.ColorCode, "#ffffff"))
}

func blockStyle(b models.TextBlock) template.CSS {
	var sb strings.Builder
	fmt.Fprintf(&sb, "color:%s;", color(b.Color, "#000000"))
	if b.Size > 0 {
		fmt.Fprintf(&sb, "font-size:%gpx;", b.Size)
	}
	if b.LineHeight > 0 {
		fmt.Fprintf(&sb, "line-height:%g;", b.LineHeight)
	}
	if b.Font != "" && b.Font != models.DefaultFont && models.ValidFont(b.Font) {
		fmt.Fprintf(&sb, "font-family:%q;", b.Font)
	}
	if b.Bold {
		sb.WriteString("font-weight:700;")
	}
	if b.Italic {
		sb.WriteString("font-style:italic;")
	}
	if b.Underline {
		sb.WriteString("text-decoration:underline;")
	}
	if b.Align.Valid() {
		fmt.Fprintf(&sb, "text-align:%s;", b.Align)
	}
	return template.CSS(sb.String())
}

func color(v, fallback string) string {
	v = strings.TrimSpace(v)
	if colorPattern.MatchString(v) {
		return v
	}
	return fallback
}

func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if (strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://")) &&
		!strings.ContainsAny(raw, "\"'()\\ \n") {
		return raw
	}
	return ""
}

func markdown(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &out); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(out.String())
}

// TemplateSource loads a stored template. *templates.Service satisfies it.
type TemplateSource interface {
	Get(ctx context.Context, id string) (models.Template, error)
}

type Handler struct {
	src      TemplateSource
	renderer *Renderer
}

func NewHandler(src TemplateSource, renderer *Renderer) *Handler {
	return &Handler{src: src, renderer: renderer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/templates/:id/preview", authMW, h.preview)
}

func (h *Handler) preview(c *gin.Context) {
	t, err := h.src.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, templates.ErrNotFound) {
		response.NotFoundMsg(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, t); err != nil {
		response.InternalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

const coverHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body{margin:0;padding:24px;display:flex;gap:16px;font-family:system-ui,sans-serif;background:#e5e7eb}
.face{position:relative;overflow:hidden;box-shadow:0 2px 12px rgba(0,0,0,.25)}
.overlay{position:absolute;inset:0}
.text{position:absolute;width:400px;white-space:pre-wrap}
.spine{width:36px}
.back-inner{padding:32px}
.author img{width:72px;height:72px;border-radius:50%;object-fit:cover}
</style>
</head>
<body>
<section class="face back" style="width:{{.Width}}px;height:{{.Height}}px;{{.BackStyle}}">
<div class="back-inner">
<div class="description" style="{{.DescStyle}}">{{.Description}}</div>
<div class="author" style="{{.AuthorStyle}}">
{{if .AuthorImage}}<img src="{{.AuthorImage}}" alt="">{{end}}
{{if .AuthorTitle}}<h3>{{.AuthorTitle}}</h3>{{end}}
{{.AuthorBio}}
</div>
</div>
</section>
<section class="face spine" style="height:{{.Height}}px;{{.SpineStyle}}"></section>
<section class="face front" style="width:{{.Width}}px;height:{{.Height}}px;{{.FrontStyle}}">
{{if .Overlay}}<div class="overlay" style="{{.Overlay}}"></div>{{end}}
{{range .Texts}}<div class="text" style="{{.Style}}">{{.Content}}</div>
{{end}}
</section>
</body>
</html>
`
