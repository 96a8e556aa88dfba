package assistant

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eparchi/eparchi/internal/platform/vectorstore"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AI is the slice of the model client the pipelines need.
type AI interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// UploadResult is what a document ingestion run returns. Upstream failures
// are reported in-band: Status is "error" and Message says what went wrong,
// the call itself does not fail.
type UploadResult struct {
	Status      string   `json:"status"`
	Message     string   `json:"message,omitempty"`
	FileID      string   `json:"file_id,omitempty"`
	PatientID   string   `json:"patient_id,omitempty"`
	TextPreview string   `json:"extracted_text_preview,omitempty"`
	Summary     *Summary `json:"analysis,omitempty"`
}

func errorResult(err error) *UploadResult {
	return &UploadResult{Status: StatusError, Message: err.Error()}
}

// Ingestor runs the document ingestion pipelines against injected clients.
type Ingestor struct {
	ai      AI
	vectors vectorstore.Store
	log     zerolog.Logger
}

func NewIngestor(ai AI, vectors vectorstore.Store, log zerolog.Logger) *Ingestor {
	return &Ingestor{ai: ai, vectors: vectors, log: log}
}

// ProcessPrescription transcribes a prescription image, indexes the
// transcription in the vector store under the patient, and asks the model
// for a structured summary. When no patient id is supplied the new file id
// becomes the retrieval scope, so an un-scoped upload still stays isolated.
func (i *Ingestor) ProcessPrescription(ctx context.Context, image []byte, mimeType, filename, patientID string) *UploadResult {
	text, err := i.ai.CompleteVision(ctx, ocrPrompt, image, mimeType)
	if err != nil {
		i.log.Error().Err(err).Str("filename", filename).Msg("prescription transcription failed")
		return errorResult(err)
	}

	fileID := uuid.NewString()
	if patientID == "" {
		patientID = fileID
	}

	vec, err := i.ai.Embed(ctx, text)
	if err != nil {
		i.log.Error().Err(err).Str("file_id", fileID).Msg("embedding failed")
		return errorResult(err)
	}

	rec := vectorstore.Record{
		ID:     fileID,
		Text:   text,
		Vector: vec,
		Metadata: map[string]string{
			vectorstore.MetaSource:    filename,
			vectorstore.MetaFileID:    fileID,
			vectorstore.MetaPatientID: patientID,
			vectorstore.MetaUploaded:  strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if err := i.vectors.Upsert(ctx, []vectorstore.Record{rec}); err != nil {
		i.log.Error().Err(err).Str("file_id", fileID).Msg("vector upsert failed")
		return errorResult(err)
	}

	raw, err := i.ai.Complete(ctx, prescriptionSummaryPrompt(text))
	if err != nil {
		i.log.Error().Err(err).Str("file_id", fileID).Msg("summary generation failed")
		return errorResult(err)
	}

	i.log.Info().Str("file_id", fileID).Str("patient_id", patientID).
		Int("chars", len(text)).Msg("prescription ingested")

	return &UploadResult{
		Status:      StatusSuccess,
		FileID:      fileID,
		PatientID:   patientID,
		TextPreview: preview(text),
		Summary:     ParsePrescriptionSummary(raw),
	}
}

// ProcessXray asks the vision model for a structured radiology read and
// memorizes a one-sentence report under the patient so the query pipeline
// can retrieve it. The scan image itself is not indexed.
func (i *Ingestor) ProcessXray(ctx context.Context, image []byte, mimeType, filename, patientID string) *UploadResult {
	raw, err := i.ai.CompleteVision(ctx, xrayPrompt, image, mimeType)
	if err != nil {
		i.log.Error().Err(err).Str("filename", filename).Msg("xray analysis failed")
		return errorResult(err)
	}

	summary := ParseXraySummary(raw)

	fileID, err := i.MemorizeReport(ctx, ReportSentence(summary.Xray), filename, patientID)
	if err != nil {
		i.log.Error().Err(err).Str("filename", filename).Msg("xray report memorization failed")
		return errorResult(err)
	}
	if patientID == "" {
		patientID = fileID
	}

	i.log.Info().Str("file_id", fileID).Str("patient_id", patientID).
		Str("finding", summary.Xray.Finding).Msg("xray ingested")

	return &UploadResult{
		Status:    StatusSuccess,
		FileID:    fileID,
		PatientID: patientID,
		Summary:   summary,
	}
}

// MemorizeReport writes free text into the vector store under the patient,
// tagged as a medical report, and returns the new file id.
func (i *Ingestor) MemorizeReport(ctx context.Context, text, filename, patientID string) (string, error) {
	fileID := uuid.NewString()
	if patientID == "" {
		patientID = fileID
	}

	vec, err := i.ai.Embed(ctx, text)
	if err != nil {
		return "", err
	}

	rec := vectorstore.Record{
		ID:     fileID,
		Text:   text,
		Vector: vec,
		Metadata: map[string]string{
			vectorstore.MetaSource:    filename,
			vectorstore.MetaFileID:    fileID,
			vectorstore.MetaPatientID: patientID,
			vectorstore.MetaType:      "medical_report",
			vectorstore.MetaUploaded:  strconv.FormatInt(time.Now().Unix(), 10),
		},
	}
	if err := i.vectors.Upsert(ctx, []vectorstore.Record{rec}); err != nil {
		return "", err
	}
	return fileID, nil
}

func preview(text string) string {
	const max = 100
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
