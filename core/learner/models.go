package learner

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/suara/core"
)

type Learner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Region    string    `json:"region"`
	Earnings  int64     `json:"earnings"`  // sen
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// NewLearner contains information needed to register (or re-register) a Learner.
type NewLearner struct {
	Email  string `json:"email" validate:"required,email"`
	Region string `json:"region" validate:"omitempty,notblank"`
}

// Validate cleans the email. The region is kept verbatim: region lookups are exact-match.
func (nl *NewLearner) Validate(validate *validator.Validate) error {
	nl.Email = core.CleanString(nl.Email, true /* lower */)
	return validate.Struct(nl)
}

// GetFilter selects a single Learner. ID takes precedence over Email.
type GetFilter struct {
	ID    string
	Email string
}
