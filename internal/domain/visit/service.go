package visit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eparchi/eparchi/internal/domain/patient"
)

type Service struct {
	repo     Repository
	patients *patient.Service
}

func NewService(repo Repository, patients *patient.Service) *Service {
	return &Service{repo: repo, patients: patients}
}

// StartVisit advances the patient's visit counter and opens a visit whose
// visit_number is the new count. Nothing enforces uniqueness of that
// number; two racing starts can produce duplicates and the later write
// stands.
func (s *Service) StartVisit(ctx context.Context, patientID uuid.UUID, doctorID *uuid.UUID) (*Visit, error) {
	count, err := s.patients.IncrementVisits(ctx, patientID)
	if err != nil {
		return nil, err
	}

	v := &Visit{
		PatientID:   patientID,
		DoctorID:    doctorID,
		VisitNumber: count,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// GetDetail returns the visit with its file and message history in append
// order.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.repo.ListFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Visit: v, Files: files, Messages: messages}, nil
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.repo.HistoryByPatient(ctx, patientID, limit, offset)
}

func (s *Service) AppendFile(ctx context.Context, f *FileRecord) error {
	if f.FileType != FileTypePrescription && f.FileType != FileTypeXray {
		return fmt.Errorf("unknown file type %q", f.FileType)
	}
	return s.repo.AppendFile(ctx, f)
}

func (s *Service) AppendMessage(ctx context.Context, m *Message) error {
	if m.Sender != SenderDoctor && m.Sender != SenderAI {
		return fmt.Errorf("unknown sender %q", m.Sender)
	}
	return s.repo.AppendMessage(ctx, m)
}
