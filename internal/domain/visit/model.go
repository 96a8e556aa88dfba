package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/eparchi/eparchi/internal/assistant"
)

// File types accepted on upload.
const (
	FileTypePrescription = "prescription"
	FileTypeXray         = "xray"
)

// Message senders.
const (
	SenderDoctor = "doctor"
	SenderAI     = "ai"
)

// Visit is one consultation. Its visit_number comes from the patient's
// visit counter at the moment the visit starts: 1 means a new patient,
// anything higher a returning one.
type Visit struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id" form:"patient_id"`
	DoctorID     *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty" form:"doctor_id"`
	VisitNumber  int        `db:"visit_number" json:"visit_number"`
	VisitSummary *string    `db:"visit_summary" json:"visit_summary,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// FileRecord is one uploaded document within a visit. Records are
// append-only and immutable; Seq preserves upload order.
type FileRecord struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	VisitID   uuid.UUID          `db:"visit_id" json:"visit_id"`
	FileID    string             `db:"file_id" json:"file_id"`
	Filename  string             `db:"filename" json:"filename"`
	FileType  string             `db:"file_type" json:"file_type"`
	LocalPath string             `db:"local_path" json:"local_path"`
	AISummary *assistant.Summary `db:"ai_summary" json:"ai_summary,omitempty"`
	Seq       int64              `db:"seq" json:"seq"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// Message is one chat entry within a visit, append-only like files.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	Sender    string    `db:"sender" json:"sender"`
	Text      string    `db:"text" json:"text"`
	Seq       int64     `db:"seq" json:"seq"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Detail is a visit with its full file and message history.
type Detail struct {
	Visit    *Visit        `json:"visit"`
	Files    []*FileRecord `json:"files"`
	Messages []*Message    `json:"messages"`
}
