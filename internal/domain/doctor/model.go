package doctor

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSpecialty is assigned when a doctor is registered without one.
const DefaultSpecialty = "General Physician"

type Doctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" form:"name"`
	Specialty string    `db:"specialty" json:"specialty" form:"specialty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
