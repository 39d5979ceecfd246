package submission

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/training"
)

var (
	// errors
	ErrNotFound     = errors.New("submission not found")
	ErrUnknownStory = errors.New("unknown story")
)

const completionTemplate = "training_completed"

type (
	Repository interface {
		// CreateSubmission is idempotent on (LearnerID, ItemID): on a duplicate the stored
		// Submission is returned with created == false.
		CreateSubmission(ctx context.Context, sub Submission, exec ...core.DBExecutor) (s Submission, created bool, err error)
		CompletedItemIDs(ctx context.Context, learnerID string, exec ...core.DBExecutor) ([]int, error)
		// QuerySubmissions lists the learner's submissions, newest first.
		QuerySubmissions(ctx context.Context, learnerID string, exec ...core.DBExecutor) ([]Submission, error)
		GetSubmission(ctx context.Context, id string, exec ...core.DBExecutor) (Submission, error)
		DeleteSubmission(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	ServiceInterface interface {
		Submit(ctx context.Context, ns NewSubmission) (sub Submission, created bool, err error)
		Remove(ctx context.Context, id string) (Submission, error)
		Completed(ctx context.Context, learnerID string) (training.CompletedSet, error)
		History(ctx context.Context, learnerID string) ([]Submission, error)
	}

	Service struct {
		conf     *core.Config
		db       core.DB // nil with in-memory storage
		repo     Repository
		learners learner.ServiceInterface
		sched    *training.Scheduler
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	learners learner.ServiceInterface,
	sched *training.Scheduler,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		conf:     conf,
		db:       db,
		repo:     repo,
		learners: learners,
		sched:    sched,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Submit records a validated NewSubmission. The learner is credited the configured reward
// only when the submission was not already recorded.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Submission, bool, error) {
	if _, err := svc.sched.Catalog().ItemByID(ns.StoryID); err != nil {
		if errors.Is(err, training.ErrItemNotFound) {
			return Submission{}, false, core.NewValidationError(ErrUnknownStory, core.FieldError{Field: "storyId", Error: ErrUnknownStory.Error()})
		}
		return Submission{}, false, errors.Wrap(err, "finding story")
	}

	lrn, err := svc.learners.GetByEmail(ctx, ns.Email)
	if err != nil {
		return Submission{}, false, err
	}

	region := ns.Region
	if region == "" {
		region = lrn.Region
	}
	sub := Submission{
		LearnerID:     lrn.ID,
		ItemID:        ns.StoryID,
		OriginalText:  ns.OriginalText,
		CorrectedText: ns.CorrectedText,
		Region:        region,
		AudioURL:      ns.AudioURL,
		Reward:        svc.conf.Training.RewardPerSubmission,
		CreatedAt:     time.Now().UTC(),
	}

	var created bool
	err = core.WithTx(ctx, svc.db, func(exec ...core.DBExecutor) error {
		var err error
		if sub, created, err = svc.repo.CreateSubmission(ctx, sub, exec...); err != nil {
			return errors.Wrap(err, "creating submission")
		}
		if created && sub.Reward != 0 {
			if lrn, err = svc.learners.AddEarnings(ctx, lrn.ID, sub.Reward, exec...); err != nil {
				return errors.Wrap(err, "crediting reward")
			}
		}
		return nil
	})
	if err != nil {
		return Submission{}, false, err
	}

	if created {
		svc.notifyIfCompleted(ctx, lrn, region)
	}
	return sub, created, nil
}

// notifyIfCompleted mails the learner the first time their last story is in.
func (svc *Service) notifyIfCompleted(ctx context.Context, lrn learner.Learner, region string) {
	completed, err := svc.Completed(ctx, lrn.ID)
	if err != nil {
		svc.logger.Error("submission.notifyIfCompleted: "+err.Error(), err, lrn)
		return
	}
	a := svc.sched.Assign(region, completed)
	if !a.AllCompleted {
		return
	}
	first, err := svc.learners.MarkCompleted(ctx, lrn.ID)
	if err != nil {
		svc.logger.Error("submission.notifyIfCompleted: "+err.Error(), err, lrn)
		return
	}
	if !first {
		return
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: lrn.Email}},
		Subject:      "Training completed",
		TemplateName: completionTemplate,
		TemplateData: map[string]interface{}{
			"Email":        lrn.Email,
			"Message":      svc.conf.Training.CompletionMessage,
			"TotalStories": a.TotalItemCount,
			"Currency":     svc.conf.Training.Currency,
			"Earnings":     FormatAmount(lrn.Earnings),
		},
	})
}

// Remove deletes a submission and debits the reward it earned.
func (svc *Service) Remove(ctx context.Context, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}

	err = core.WithTx(ctx, svc.db, func(exec ...core.DBExecutor) error {
		if err := svc.repo.DeleteSubmission(ctx, sub.ID, exec...); err != nil {
			return errors.Wrap(err, "deleting submission")
		}
		if sub.Reward != 0 {
			if _, err := svc.learners.AddEarnings(ctx, sub.LearnerID, -sub.Reward, exec...); err != nil {
				return errors.Wrap(err, "debiting reward")
			}
		}
		return nil
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) Completed(ctx context.Context, learnerID string) (training.CompletedSet, error) {
	ids, err := svc.repo.CompletedItemIDs(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "loading completed items")
	}
	return training.NewCompletedSet(ids...), nil
}

func (svc *Service) History(ctx context.Context, learnerID string) ([]Submission, error) {
	subs, err := svc.repo.QuerySubmissions(ctx, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

// FormatAmount renders an amount in sen as a decimal, e.g. 1230 -> "12.30".
func FormatAmount(sen int64) string {
	sign := ""
	if sen < 0 {
		sign, sen = "-", -sen
	}
	return fmt.Sprintf("%s%d.%02d", sign, sen/100, sen%100)
}
