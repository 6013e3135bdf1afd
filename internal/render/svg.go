package render

import (
	"fmt"
	"html"
	"strings"

	"noisec/internal/verifier"
)

const svgWidth = RightLane + LeftLane

func statusClass(o verifier.Outcome) string {
	switch o {
	case verifier.Secure:
		return "secure"
	case verifier.Violated:
		return "violated"
	}
	return "unknown"
}

// SVG draws the diagram: two lifelines, one row per pre-message and one
// arrow per message with its tokens and grades.
func SVG(d *DiagramModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" class=\"arrows\" viewBox=\"0 0 %d %d\" width=\"%d\" height=\"%d\">\n",
		svgWidth, d.Height, svgWidth, d.Height)
	b.WriteString("<defs><marker id=\"head\" viewBox=\"0 0 10 10\" refX=\"10\" refY=\"5\" markerWidth=\"8\" markerHeight=\"8\" orient=\"auto-start-reverse\"><path d=\"M 0 0 L 10 5 L 0 10 z\"/></marker></defs>\n")
	for _, x := range []int{LeftLane, RightLane} {
		fmt.Fprintf(&b, "<line class=\"lifeline\" x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", x, TopMargin/2, x, d.Height-BottomGap/2)
	}
	for _, p := range d.Pre {
		x := laneX(p.Role)
		fmt.Fprintf(&b, "<text class=\"prekey\" x=\"%d\" y=\"%d\" text-anchor=\"middle\">%s</text>\n",
			x, p.Y, html.EscapeString(p.Label))
	}
	if len(d.Pre) > 0 {
		y := d.Pre[len(d.Pre)-1].Y + PreRow/2
		fmt.Fprintf(&b, "<line class=\"separator\" x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", LeftLane, y, RightLane, y)
	}
	for i := range d.Arrows {
		writeArrow(&b, &d.Arrows[i])
	}
	b.WriteString("</svg>")
	return b.String()
}

func writeArrow(b *strings.Builder, a *Arrow) {
	class := "arrow " + statusClass(a.Status)
	if a.Transport {
		class += " transport"
	}
	fmt.Fprintf(b, "<g class=\"%s\" id=\"message-%s\">\n", class, a.Letter)
	fmt.Fprintf(b, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" marker-end=\"url(#head)\"/>\n",
		a.FromX(), a.Y, a.ToX(), a.Y)
	mid := (LeftLane + RightLane) / 2
	for i, line := range a.Lines {
		y := a.Y - 8 - WrapRow*(len(a.Lines)-1-i)
		fmt.Fprintf(b, "<text class=\"tokens\" x=\"%d\" y=\"%d\" text-anchor=\"middle\">%s</text>\n",
			mid, y, html.EscapeString(line))
	}
	fmt.Fprintf(b, "<text class=\"grade\" x=\"%d\" y=\"%d\" text-anchor=\"middle\">%s · auth %d · conf %d</text>\n",
		mid, a.Y+18, a.Letter, a.Grade.Auth, a.Grade.Conf)
	b.WriteString("</g>\n")
}
