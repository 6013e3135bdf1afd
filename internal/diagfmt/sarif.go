package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"noisec/internal/diag"
	"noisec/internal/source"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0)
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	rules := make(map[diag.Code]struct{})
	results := make([]sarifResult, 0, bag.Len())
	for _, d := range bag.Items() {
		rules[d.Code] = struct{}{}
		r := sarifResult{
			RuleID:  d.Code.ID(),
			Level:   sarifLevel(d.Severity),
			Message: sarifMessage{Text: d.Message},
		}
		if fs != nil && int(d.Primary.File) < fs.Len() {
			start, end := fs.Resolve(d.Primary)
			r.Locations = []sarifLocation{{PhysicalLocation: sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: fs.Get(d.Primary.File).FormatPath("relative", fs.BaseDir())},
				Region: sarifRegion{
					StartLine:   start.Line,
					StartColumn: start.Col,
					EndLine:     end.Line,
					EndColumn:   end.Col,
				},
			}}}
		}
		results = append(results, r)
	}

	codes := make([]diag.Code, 0, len(rules))
	for c := range rules {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	driver := sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion}
	for _, c := range codes {
		driver.Rules = append(driver.Rules, sarifRule{ID: c.ID(), ShortDescription: sarifMessage{Text: c.Title()}})
	}

	run := sarifRun{Tool: sarifTool{Driver: driver}, Results: results}
	if len(meta.InvocationArgs) > 0 {
		run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !bag.HasErrors()}}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sarifLog{Schema: sarifSchema, Version: "2.1.0", Runs: []sarifRun{run}})
}
