package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates what a Summary holds.
type Kind string

const (
	KindPrescription Kind = "prescription"
	KindXray         Kind = "xray"
	KindUnparsed     Kind = "unparsed"
)

// PrescriptionSummary is the structured analysis of a transcribed
// prescription.
type PrescriptionSummary struct {
	PatientSummary        string   `json:"patient_summary"`
	DifferentialDiagnoses []string `json:"differential_diagnoses"`
	Medicines             []string `json:"medicines"`
	Advice                string   `json:"advice"`
}

// XraySummary is the structured analysis of a medical scan.
type XraySummary struct {
	Finding       string   `json:"finding"`
	Location      string   `json:"location,omitempty"`
	Severity      string   `json:"severity,omitempty"`
	TreatmentPlan []string `json:"treatment_plan,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	IsNormal      bool     `json:"is_normal"`
}

// Summary is what an ingestion run produces. Exactly one of Prescription or
// Xray is set unless the model output could not be parsed, in which case
// Kind is KindUnparsed and RawText carries what the model actually said.
type Summary struct {
	Kind         Kind                 `json:"kind"`
	Prescription *PrescriptionSummary `json:"prescription,omitempty"`
	Xray         *XraySummary         `json:"xray,omitempty"`
	RawText      string               `json:"raw_text,omitempty"`
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// stripFences removes markdown code-fence markers models wrap JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParsePrescriptionSummary parses the model's JSON reply. Malformed output
// degrades to an unparsed summary carrying the raw text; it never fails.
func ParsePrescriptionSummary(raw string) *Summary {
	clean := stripFences(raw)

	var ps PrescriptionSummary
	if err := json.Unmarshal([]byte(clean), &ps); err != nil {
		return &Summary{Kind: KindUnparsed, RawText: clean}
	}
	return &Summary{Kind: KindPrescription, Prescription: &ps}
}

// ParseXraySummary parses the radiologist JSON reply. A first parse failure
// gets one repair attempt that drops trailing commas; if that also fails the
// result is the fixed "Analysis Failed" summary with the raw text attached.
func ParseXraySummary(raw string) *Summary {
	clean := stripFences(raw)

	var xs XraySummary
	if err := json.Unmarshal([]byte(clean), &xs); err != nil {
		repaired := trailingCommaRe.ReplaceAllString(clean, "$1")
		if err := json.Unmarshal([]byte(repaired), &xs); err != nil {
			return &Summary{
				Kind:    KindXray,
				Xray:    &XraySummary{Finding: "Analysis Failed", Severity: "Unknown"},
				RawText: clean,
			}
		}
	}
	return &Summary{Kind: KindXray, Xray: &xs}
}

// ChatText renders the summary as a readable chat message, so an upload can
// drop a synthetic assistant message into the visit conversation.
func (s *Summary) ChatText() string {
	switch s.Kind {
	case KindPrescription:
		p := s.Prescription
		var b strings.Builder
		b.WriteString(p.PatientSummary)
		if len(p.DifferentialDiagnoses) > 0 {
			fmt.Fprintf(&b, "\n\nDifferential diagnoses:\n%s", strings.Join(p.DifferentialDiagnoses, "\n"))
		}
		if len(p.Medicines) > 0 {
			fmt.Fprintf(&b, "\n\nMedicines: %s", strings.Join(p.Medicines, ", "))
		}
		if p.Advice != "" {
			fmt.Fprintf(&b, "\n\nAdvice: %s", p.Advice)
		}
		return strings.TrimSpace(b.String())
	case KindXray:
		return ReportSentence(s.Xray)
	default:
		return s.RawText
	}
}

// ReportSentence renders an X-ray summary as one natural-language sentence
// so it can be stored and later retrieved like any other document text.
func ReportSentence(x *XraySummary) string {
	if x.IsNormal {
		return "X-ray review: no abnormalities detected."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "X-ray finding: %s", x.Finding)
	if x.Location != "" {
		fmt.Fprintf(&b, " at %s", x.Location)
	}
	if x.Severity != "" {
		fmt.Fprintf(&b, ", severity %s", x.Severity)
	}
	b.WriteString(".")
	if len(x.TreatmentPlan) > 0 {
		fmt.Fprintf(&b, " Recommended treatment: %s.", strings.Join(x.TreatmentPlan, "; "))
	}
	return b.String()
}
