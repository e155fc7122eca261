package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/scan"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format. Each detector is a
// rule; each finding is a result located down to the byte column.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *scan.Report) error {
	sarif := buildSARIF(report)
	data, err := json.MarshalIndent(sarif, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int          `json:"startLine"`
	StartColumn int          `json:"startColumn"`
	EndColumn   int          `json:"endColumn"`
	Snippet     sarifMessage `json:"snippet"`
}

var ruleDescriptions = map[string]string{
	pii.Address:    "Postal address",
	pii.CaseID:     "Case reference number",
	pii.CashAmount: "Cash amount",
	pii.Email:      "Email address",
	pii.IPAddress:  "IP address",
	pii.NINO:       "National Insurance number",
	pii.Postcode:   "UK postcode",
	pii.Tag:        "Social media handle",
	pii.Telephone:  "Telephone number",
}

func buildSARIF(report *scan.Report) sarifLog {
	results := make([]sarifResult, 0, len(report.Findings))
	rules := []sarifRule{}
	seen := make(map[string]bool)

	for _, f := range report.Findings {
		id := ruleID(f.Detector)
		if !seen[id] {
			seen[id] = true
			desc, ok := ruleDescriptions[f.Detector]
			if !ok {
				desc = f.Detector
			}
			rules = append(rules, sarifRule{
				ID:               id,
				Name:             f.Detector,
				ShortDescription: sarifMessage{Text: desc},
				DefaultConfig:    sarifDefaultConfig{Level: "warning"},
			})
		}

		results = append(results, sarifResult{
			RuleID:  id,
			Level:   "warning",
			Message: sarifMessage{Text: fmt.Sprintf("Possible %s found", f.Detector)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: f.Path},
					Region: sarifRegion{
						StartLine:   f.Line,
						StartColumn: f.Column,
						EndColumn:   f.Column + f.Length,
						Snippet:     sarifMessage{Text: f.Snippet},
					},
				},
			}},
			PartialFingerprints: map[string]string{"piicleaner/v1": f.ID},
		})
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    report.Tool,
						Version: report.Version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}
}

func ruleID(detector string) string {
	return "piicleaner/" + detector
}
