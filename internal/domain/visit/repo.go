package visit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)

	// HistoryByPatient lists a patient's visits newest first.
	HistoryByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)

	// AppendFile and AppendMessage are append-only; the store assigns Seq.
	AppendFile(ctx context.Context, f *FileRecord) error
	AppendMessage(ctx context.Context, m *Message) error

	ListFiles(ctx context.Context, visitID uuid.UUID) ([]*FileRecord, error)
	ListMessages(ctx context.Context, visitID uuid.UUID) ([]*Message, error)
}
