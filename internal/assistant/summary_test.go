package assistant

import (
	"strings"
	"testing"
)

func TestParsePrescriptionSummary(t *testing.T) {
	raw := "```json\n" + `{
		"patient_summary": "Viral fever, 3 days.",
		"differential_diagnoses": ["1. Most likely: Influenza (seasonal)"],
		"medicines": ["Paracetamol 500mg"],
		"advice": "Rest and fluids."
	}` + "\n```"

	s := ParsePrescriptionSummary(raw)
	if s.Kind != KindPrescription {
		t.Fatalf("expected prescription kind, got %q", s.Kind)
	}
	if s.Prescription.PatientSummary != "Viral fever, 3 days." {
		t.Errorf("unexpected summary: %q", s.Prescription.PatientSummary)
	}
	if len(s.Prescription.Medicines) != 1 || s.Prescription.Medicines[0] != "Paracetamol 500mg" {
		t.Errorf("unexpected medicines: %v", s.Prescription.Medicines)
	}
}

func TestParsePrescriptionSummary_Fallback(t *testing.T) {
	raw := "The patient appears to have a fever. I cannot produce JSON today."

	s := ParsePrescriptionSummary(raw)
	if s.Kind != KindUnparsed {
		t.Fatalf("expected unparsed kind, got %q", s.Kind)
	}
	if s.RawText != raw {
		t.Errorf("raw text not preserved: %q", s.RawText)
	}
	if s.Prescription != nil {
		t.Error("unparsed summary should not carry a prescription")
	}
}

func TestParseXraySummary(t *testing.T) {
	raw := "```json\n" + `{
		"finding": "Tibia Fracture",
		"location": "Distal 1/3rd of the tibia",
		"severity": "Moderate",
		"treatment_plan": ["Immobilize with splint", "Refer to orthopedics"],
		"is_normal": false
	}` + "\n```"

	s := ParseXraySummary(raw)
	if s.Kind != KindXray {
		t.Fatalf("expected xray kind, got %q", s.Kind)
	}
	if s.Xray.Finding != "Tibia Fracture" || s.Xray.IsNormal {
		t.Errorf("unexpected summary: %+v", s.Xray)
	}
}

func TestParseXraySummary_TrailingCommaRepair(t *testing.T) {
	raw := `{
		"finding": "Hairline fracture",
		"severity": "Low",
		"treatment_plan": ["Rest", "Follow-up scan",],
		"is_normal": false,
	}`

	s := ParseXraySummary(raw)
	if s.Kind != KindXray {
		t.Fatalf("expected xray kind, got %q", s.Kind)
	}
	if s.Xray.Finding != "Hairline fracture" {
		t.Errorf("repair failed: %+v", s.Xray)
	}
	if len(s.Xray.TreatmentPlan) != 2 {
		t.Errorf("unexpected treatment plan: %v", s.Xray.TreatmentPlan)
	}
}

func TestParseXraySummary_Garbage(t *testing.T) {
	s := ParseXraySummary("I am sorry, I cannot analyze this image.")
	if s.Kind != KindXray {
		t.Fatalf("expected xray kind, got %q", s.Kind)
	}
	if s.Xray.Finding != "Analysis Failed" {
		t.Errorf("expected failure sentinel, got %q", s.Xray.Finding)
	}
	if s.RawText == "" {
		t.Error("raw text should be preserved on failure")
	}
}

func TestChatText(t *testing.T) {
	s := &Summary{
		Kind: KindPrescription,
		Prescription: &PrescriptionSummary{
			PatientSummary: "Fever, likely viral.",
			Medicines:      []string{"Paracetamol 500mg"},
			Advice:         "Rest and fluids.",
		},
	}
	got := s.ChatText()
	for _, want := range []string{"Fever, likely viral.", "Paracetamol 500mg", "Rest and fluids."} {
		if !strings.Contains(got, want) {
			t.Errorf("chat text %q missing %q", got, want)
		}
	}

	unparsed := &Summary{Kind: KindUnparsed, RawText: "whatever the model said"}
	if unparsed.ChatText() != "whatever the model said" {
		t.Errorf("unexpected unparsed chat text: %q", unparsed.ChatText())
	}
}

func TestReportSentence(t *testing.T) {
	got := ReportSentence(&XraySummary{
		Finding:       "Radius fracture",
		Location:      "distal radius",
		Severity:      "Severe",
		TreatmentPlan: []string{"Splint", "Surgery referral"},
	})
	for _, want := range []string{"Radius fracture", "distal radius", "Severe", "Splint; Surgery referral"} {
		if !strings.Contains(got, want) {
			t.Errorf("sentence %q missing %q", got, want)
		}
	}

	normal := ReportSentence(&XraySummary{Finding: "No abnormalities detected", IsNormal: true})
	if !strings.Contains(normal, "no abnormalities") {
		t.Errorf("unexpected normal sentence: %q", normal)
	}
}
