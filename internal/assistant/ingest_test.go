package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/eparchi/eparchi/internal/platform/vectorstore"
)

// fakeAI returns canned responses. Embeddings are keyed by text so related
// ingest and query calls land on the same vector.
type fakeAI struct {
	embeddings map[string][]float32
	completion string
	vision     string

	embedErr  error
	visionErr error
}

func (f *fakeAI) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if v, ok := f.embeddings[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeAI) Complete(_ context.Context, _ string) (string, error) {
	return f.completion, nil
}

func (f *fakeAI) CompleteVision(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	if f.visionErr != nil {
		return "", f.visionErr
	}
	return f.vision, nil
}

func TestProcessPrescription(t *testing.T) {
	ai := &fakeAI{
		vision:     "Rx: Paracetamol 500mg twice daily for fever.",
		completion: `{"patient_summary":"Fever case","differential_diagnoses":["1. Most likely: Influenza"],"medicines":["Paracetamol 500mg"],"advice":"Hydrate"}`,
	}
	store := vectorstore.NewMemory()
	ing := NewIngestor(ai, store, zerolog.Nop())

	res := ing.ProcessPrescription(context.Background(), []byte("img"), "image/jpeg", "rx.jpg", "patient-1")
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.FileID == "" {
		t.Error("expected generated file id")
	}
	if res.PatientID != "patient-1" {
		t.Errorf("patient id changed: %q", res.PatientID)
	}
	if res.Summary.Kind != KindPrescription {
		t.Errorf("expected parsed summary, got %q kind", res.Summary.Kind)
	}

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 3,
		vectorstore.Filter{Key: vectorstore.MetaPatientID, Value: "patient-1"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 indexed record, got %d", len(matches))
	}
	md := matches[0].Record.Metadata
	if md[vectorstore.MetaSource] != "rx.jpg" || md[vectorstore.MetaFileID] != res.FileID {
		t.Errorf("unexpected metadata: %v", md)
	}
	if md[vectorstore.MetaUploaded] == "" {
		t.Error("missing upload timestamp")
	}
}

func TestProcessPrescription_PatientFallsBackToFileID(t *testing.T) {
	ai := &fakeAI{vision: "text", completion: "{}"}
	store := vectorstore.NewMemory()
	ing := NewIngestor(ai, store, zerolog.Nop())

	res := ing.ProcessPrescription(context.Background(), []byte("img"), "image/jpeg", "rx.jpg", "")
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.PatientID != res.FileID {
		t.Errorf("expected patient id to fall back to file id: %q vs %q", res.PatientID, res.FileID)
	}
}

func TestProcessPrescription_MalformedSummary(t *testing.T) {
	ai := &fakeAI{vision: "text", completion: "not json at all"}
	ing := NewIngestor(ai, vectorstore.NewMemory(), zerolog.Nop())

	res := ing.ProcessPrescription(context.Background(), []byte("img"), "image/jpeg", "rx.jpg", "p1")
	if res.Status != StatusSuccess {
		t.Fatalf("malformed model output must not fail the upload: %+v", res)
	}
	if res.Summary.Kind != KindUnparsed {
		t.Errorf("expected unparsed fallback, got %q", res.Summary.Kind)
	}
	if res.Summary.RawText != "not json at all" {
		t.Errorf("raw text lost: %q", res.Summary.RawText)
	}
}

func TestProcessPrescription_UpstreamFailure(t *testing.T) {
	ai := &fakeAI{visionErr: errors.New("quota exceeded")}
	ing := NewIngestor(ai, vectorstore.NewMemory(), zerolog.Nop())

	res := ing.ProcessPrescription(context.Background(), []byte("img"), "image/jpeg", "rx.jpg", "p1")
	if res.Status != StatusError {
		t.Fatalf("expected error status, got %+v", res)
	}
	if res.Message == "" {
		t.Error("expected failure message")
	}
}

func TestProcessXray(t *testing.T) {
	ai := &fakeAI{
		vision: `{"finding":"Tibia Fracture","location":"mid-shaft","severity":"Moderate","treatment_plan":["Splint"],"is_normal":false}`,
	}
	store := vectorstore.NewMemory()
	ing := NewIngestor(ai, store, zerolog.Nop())

	res := ing.ProcessXray(context.Background(), []byte("img"), "image/png", "scan.png", "patient-2")
	if res.Status != StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Summary.Xray.Finding != "Tibia Fracture" {
		t.Errorf("unexpected summary: %+v", res.Summary.Xray)
	}

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 3,
		vectorstore.Filter{Key: vectorstore.MetaPatientID, Value: "patient-2"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected report sentence in vector store, got %d records", len(matches))
	}
	if matches[0].Record.Metadata[vectorstore.MetaType] != "medical_report" {
		t.Errorf("report not tagged: %v", matches[0].Record.Metadata)
	}
}

func TestProcessXray_GarbageOutput(t *testing.T) {
	ai := &fakeAI{vision: "this scan looks... complicated"}
	ing := NewIngestor(ai, vectorstore.NewMemory(), zerolog.Nop())

	res := ing.ProcessXray(context.Background(), []byte("img"), "image/png", "scan.png", "p1")
	if res.Status != StatusSuccess {
		t.Fatalf("unparseable output must not fail the request: %+v", res)
	}
	if res.Summary.Xray.Finding != "Analysis Failed" {
		t.Errorf("expected failure sentinel, got %q", res.Summary.Xray.Finding)
	}
}
