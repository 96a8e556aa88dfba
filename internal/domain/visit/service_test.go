package visit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eparchi/eparchi/internal/domain/patient"
)

// -- Mocks --

type mockPatientRepo struct {
	patients map[uuid.UUID]*patient.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*patient.Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) IncrementVisits(_ context.Context, id uuid.UUID) (int, error) {
	p, ok := m.patients[id]
	if !ok {
		return 0, patient.ErrNotFound
	}
	p.TotalVisits++
	return p.TotalVisits, nil
}

type mockRepo struct {
	visits   map[uuid.UUID]*Visit
	files    map[uuid.UUID][]*FileRecord
	messages map[uuid.UUID][]*Message
	seq      int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		visits:   make(map[uuid.UUID]*Visit),
		files:    make(map[uuid.UUID][]*FileRecord),
		messages: make(map[uuid.UUID][]*Message),
	}
}

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	m.visits[v.ID] = v
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *mockRepo) HistoryByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var visits []*Visit
	for _, v := range m.visits {
		if v.PatientID == patientID {
			visits = append(visits, v)
		}
	}
	// newest first
	for i, j := 0, len(visits)-1; i < j; i, j = i+1, j-1 {
		visits[i], visits[j] = visits[j], visits[i]
	}
	return visits, len(visits), nil
}

func (m *mockRepo) AppendFile(_ context.Context, f *FileRecord) error {
	f.ID = uuid.New()
	m.seq++
	f.Seq = m.seq
	f.CreatedAt = time.Now()
	m.files[f.VisitID] = append(m.files[f.VisitID], f)
	return nil
}

func (m *mockRepo) AppendMessage(_ context.Context, msg *Message) error {
	msg.ID = uuid.New()
	m.seq++
	msg.Seq = m.seq
	msg.CreatedAt = time.Now()
	m.messages[msg.VisitID] = append(m.messages[msg.VisitID], msg)
	return nil
}

func (m *mockRepo) ListFiles(_ context.Context, visitID uuid.UUID) ([]*FileRecord, error) {
	return m.files[visitID], nil
}

func (m *mockRepo) ListMessages(_ context.Context, visitID uuid.UUID) ([]*Message, error) {
	return m.messages[visitID], nil
}

func newTestService(t *testing.T) (*Service, *patient.Patient, *mockRepo) {
	t.Helper()
	patients := newMockPatientRepo()
	p := &patient.Patient{Name: "Asha", Age: 34, Gender: "female"}
	patients.Create(context.Background(), p)

	repo := newMockRepo()
	return NewService(repo, patient.NewService(patients)), p, repo
}

// -- Tests --

func TestStartVisit_NumbersFollowCounter(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		v, err := svc.StartVisit(ctx, p.ID, nil)
		if err != nil {
			t.Fatalf("visit %d: %v", i, err)
		}
		if v.VisitNumber != i {
			t.Errorf("visit %d: expected number %d, got %d", i, i, v.VisitNumber)
		}
	}
	if p.TotalVisits != 3 {
		t.Errorf("expected total_visits 3, got %d", p.TotalVisits)
	}
}

func TestStartVisit_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.StartVisit(context.Background(), uuid.New(), nil); err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestHistory(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.StartVisit(ctx, p.ID, nil); err != nil {
			t.Fatalf("start visit: %v", err)
		}
	}

	visits, total, err := svc.History(ctx, p.ID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(visits) != 2 {
		t.Errorf("expected 2 visits, got %d/%d", len(visits), total)
	}
}

func TestHistory_UnknownPatient(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, _, err := svc.History(context.Background(), uuid.New(), 10, 0); err == nil {
		t.Error("expected error for unknown patient")
	}
}

func TestAppendFile_RejectsUnknownType(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.StartVisit(ctx, p.ID, nil)

	err := svc.AppendFile(ctx, &FileRecord{VisitID: v.ID, FileID: "f", Filename: "a.pdf", FileType: "report"})
	if err == nil {
		t.Error("expected error for unknown file type")
	}
}

func TestAppendMessage_RejectsUnknownSender(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.StartVisit(ctx, p.ID, nil)

	err := svc.AppendMessage(ctx, &Message{VisitID: v.ID, Sender: "nurse", Text: "hi"})
	if err == nil {
		t.Error("expected error for unknown sender")
	}
}

func TestGetDetail(t *testing.T) {
	svc, p, _ := newTestService(t)
	ctx := context.Background()
	v, _ := svc.StartVisit(ctx, p.ID, nil)

	svc.AppendFile(ctx, &FileRecord{VisitID: v.ID, FileID: "f1", Filename: "rx.jpg", FileType: FileTypePrescription})
	svc.AppendMessage(ctx, &Message{VisitID: v.ID, Sender: SenderAI, Text: "summary"})

	detail, err := svc.GetDetail(ctx, v.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Files) != 1 || len(detail.Messages) != 1 {
		t.Errorf("expected 1 file and 1 message, got %d/%d", len(detail.Files), len(detail.Messages))
	}
}
