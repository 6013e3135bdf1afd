package render

import (
	"fmt"
	"strings"

	"noisec/internal/pattern"
	"noisec/internal/verifier"
)

// Mermaid renders the diagram as a Mermaid sequence diagram.
func Mermaid(d *DiagramModel) string {
	var sb strings.Builder
	sb.WriteString("sequenceDiagram\n")
	fmt.Fprintf(&sb, "    title %s\n", d.Title)
	sb.WriteString("    participant I as Initiator\n")
	sb.WriteString("    participant R as Responder\n")
	for _, p := range d.Pre {
		fmt.Fprintf(&sb, "    Note over %s: knows %s\n", participant(p.Role), p.Label)
	}
	for _, a := range d.Arrows {
		label := a.Label
		if label == "" {
			label = "payload"
		}
		fmt.Fprintf(&sb, "    %s->>%s: %s %s\n", participant(a.Sender), participant(a.Receiver), a.Letter, label)
		fmt.Fprintf(&sb, "    Note over I,R: %s, auth %d/%d, conf %d/%d\n",
			statusClass(a.Status), a.Grade.Auth, verifier.MaxAuth, a.Grade.Conf, verifier.MaxConf)
	}
	return sb.String()
}

func participant(r pattern.Role) string {
	if r == pattern.Initiator {
		return "I"
	}
	return "R"
}
