package visit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eparchi/eparchi/internal/assistant"
)

var ErrNotFound = errors.New("visit not found")

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const visitCols = `id, patient_id, doctor_id, visit_number, visit_summary, created_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO visits (id, patient_id, doctor_id, visit_number)
		VALUES ($1, $2, $3, $4)`,
		v.ID, v.PatientID, v.DoctorID, v.VisitNumber,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) HistoryByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+visitCols+` FROM visits
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		visits = append(visits, v)
	}
	return visits, total, rows.Err()
}

func (r *repoPG) AppendFile(ctx context.Context, f *FileRecord) error {
	f.ID = uuid.New()

	var summary []byte
	if f.AISummary != nil {
		var err error
		summary, err = json.Marshal(f.AISummary)
		if err != nil {
			return fmt.Errorf("marshal ai summary: %w", err)
		}
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO visit_files (id, visit_id, file_id, filename, file_type, local_path, ai_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq, created_at`,
		f.ID, f.VisitID, f.FileID, f.Filename, f.FileType, f.LocalPath, summary,
	).Scan(&f.Seq, &f.CreatedAt)
}

func (r *repoPG) AppendMessage(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO visit_messages (id, visit_id, sender, text)
		VALUES ($1, $2, $3, $4)
		RETURNING seq, created_at`,
		m.ID, m.VisitID, m.Sender, m.Text,
	).Scan(&m.Seq, &m.CreatedAt)
}

func (r *repoPG) ListFiles(ctx context.Context, visitID uuid.UUID) ([]*FileRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, visit_id, file_id, filename, file_type, local_path, ai_summary, seq, created_at
		FROM visit_files WHERE visit_id = $1 ORDER BY seq`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*FileRecord
	for rows.Next() {
		f := &FileRecord{}
		var summary []byte
		if err := rows.Scan(&f.ID, &f.VisitID, &f.FileID, &f.Filename, &f.FileType,
			&f.LocalPath, &summary, &f.Seq, &f.CreatedAt); err != nil {
			return nil, err
		}
		if len(summary) > 0 {
			f.AISummary = &assistant.Summary{}
			if err := json.Unmarshal(summary, f.AISummary); err != nil {
				return nil, fmt.Errorf("unmarshal ai summary: %w", err)
			}
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *repoPG) ListMessages(ctx context.Context, visitID uuid.UUID) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, visit_id, sender, text, seq, created_at
		FROM visit_messages WHERE visit_id = $1 ORDER BY seq`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.VisitID, &m.Sender, &m.Text, &m.Seq, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func scanVisit(row pgx.Row) (*Visit, error) {
	v := &Visit{}
	err := row.Scan(&v.ID, &v.PatientID, &v.DoctorID, &v.VisitNumber, &v.VisitSummary, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
