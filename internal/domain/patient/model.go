package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Patients are registered once and
// never deleted; the only mutation is the visit counter, which advances by
// one each time a visit starts.
type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name" form:"name"`
	Age         int       `db:"age" json:"age" form:"age"`
	Gender      string    `db:"gender" json:"gender" form:"gender"`
	TotalVisits int       `db:"total_visits" json:"total_visits"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
