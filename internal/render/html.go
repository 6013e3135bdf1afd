package render

import (
	"bytes"
	"fmt"
	"html/template"
	"path"

	"noisec/internal/pattern"
	"noisec/internal/skeleton"
)

type link struct {
	Href string
	Text string
}

type page struct {
	*DiagramModel
	Diagram template.HTML
	Style   template.CSS
	Links   []link
}

// OverviewPath and DetailPath are where the pages of a pattern go, relative
// to the output root.
func OverviewPath(spec *pattern.Spec) string {
	return path.Join(spec.Name, "index.html")
}

func DetailPath(spec *pattern.Spec, i int) string {
	return path.Join(spec.Name, pattern.Letter(i)+".html")
}

// Overview renders the overview page of d.
func Overview(d *DiagramModel) ([]byte, error) {
	return execute(skeleton.HTMLOverview, d)
}

// Detail renders the detail page of d, a model from RenderDetailed.
func Detail(d *DiagramModel) ([]byte, error) {
	return execute(skeleton.HTMLDetail, d)
}

func execute(name string, d *DiagramModel) ([]byte, error) {
	src, err := skeleton.Read(name)
	if err != nil {
		return nil, err
	}
	css, err := skeleton.Read(skeleton.HTMLStyle)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	p := page{
		DiagramModel: d,
		Diagram:      template.HTML(SVG(d)), //nolint:gosec // SVG escapes every label
		Style:        template.CSS(css),     //nolint:gosec // embedded
		Links:        links(d),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func links(d *DiagramModel) []link {
	out := []link{{Href: "index.html", Text: "Overview"}}
	for _, l := range d.Letters {
		out = append(out, link{Href: l + ".html", Text: l})
	}
	return out
}
