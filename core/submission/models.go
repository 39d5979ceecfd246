package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/suara/core"
)

type Submission struct {
	ID            string    `json:"id"`
	LearnerID     string    `json:"userId"`
	ItemID        int       `json:"storyId"`
	OriginalText  string    `json:"originalText"`
	CorrectedText string    `json:"correctedText"`
	Region        string    `json:"region"`
	AudioURL      string    `json:"audioUrl"`
	Reward        int64     `json:"reward"`    // sen
	CreatedAt     time.Time `json:"createdAt"` // UTC
}

// NewSubmission is what a learner posts after working on a training item.
type NewSubmission struct {
	Email         string `json:"email" validate:"required,email"`
	StoryID       int    `json:"storyId" validate:"required,min=1"`
	OriginalText  string `json:"originalText" validate:"required,notblank"`
	CorrectedText string `json:"correctedText" validate:"required,notblank"`
	Region        string `json:"region" validate:"omitempty,notblank"`
	AudioURL      string `json:"audioUrl" validate:"omitempty,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.AudioURL = core.CleanString(ns.AudioURL)
	return validate.Struct(ns)
}
