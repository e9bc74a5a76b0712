// Package review applies reviewer decisions to references. It is a small
// state machine: pending photos move to approved or rejected, a same-state
// re-decision is a no-op, and a decided photo may still be flipped to the
// opposite state. Every mutation recomputes the reference's aggregate status
// and invalidates the leaderboard cache.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/service/report"
)

// Granularity selects how decisions address a reference.
//
// PerPhoto is the default: every photo is decided on its own and the
// reference status is rolled up from the photo counts. PerSubmission is the
// degraded single-status mode: one decision covers the whole reference and
// every photo mirrors it.
type Granularity string

const (
	PerPhoto      Granularity = "per-photo"
	PerSubmission Granularity = "per-submission"
)

// Decision is one reviewer action. PhotoID is zero in per-submission mode.
type Decision struct {
	Action      domain.DecisionAction
	ReferenceID int64
	PhotoID     int64
}

// Outcome reports what a decision did. Already is set when the target was in
// the decided state before the call, in which case nothing was mutated.
// Publish is non-nil only for approvals that need to go out to the channel;
// Photos lists the photos the publish covers, in presentation order.
type Outcome struct {
	Already   bool
	Action    domain.DecisionAction
	Reference *domain.Reference
	Photos    []domain.ReferencePhoto
	Total     int64
	Publish   *domain.PublishRequest
}

type Service interface {
	Decide(ctx context.Context, d Decision) (*Outcome, error)
}

type service struct {
	refRepo     repository.ReferenceRepository
	reports     report.Service
	granularity Granularity
	locks       keyedMutex
	now         func() time.Time
}

func NewService(refRepo repository.ReferenceRepository, reports report.Service, granularity Granularity) Service {
	if granularity != PerSubmission {
		granularity = PerPhoto
	}
	return &service{
		refRepo:     refRepo,
		reports:     reports,
		granularity: granularity,
		now:         time.Now,
	}
}

func (s *service) Decide(ctx context.Context, d Decision) (*Outcome, error) {
	var target domain.ReferenceStatus
	switch d.Action {
	case domain.ActionApprove:
		target = domain.StatusApproved
	case domain.ActionReject:
		target = domain.StatusRejected
	default:
		return nil, domain.ErrUnknownAction
	}

	unlock := s.locks.lock(d.ReferenceID)
	defer unlock()

	ref, err := s.refRepo.GetByID(ctx, d.ReferenceID)
	if err != nil {
		return nil, err
	}

	if s.granularity == PerSubmission {
		return s.decideSubmission(ctx, ref, target)
	}
	return s.decidePhoto(ctx, ref, d.PhotoID, target)
}

func (s *service) decidePhoto(ctx context.Context, ref *domain.Reference, photoID int64, target domain.ReferenceStatus) (*Outcome, error) {
	photo, err := s.refRepo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}

	if photo.Status == target {
		return s.alreadyOutcome(ctx, ref, target)
	}

	if err := s.refRepo.UpdatePhotoStatus(ctx, photoID, target); err != nil {
		return nil, err
	}
	photo.Status = target

	pending, approved, rejected, err := s.refRepo.CountPhotoStatuses(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	ref.Status = domain.DeriveStatus(pending, approved, rejected)
	if err := s.refRepo.UpdateStatus(ctx, ref.ID, ref.Status); err != nil {
		return nil, err
	}

	s.reports.InvalidateLeaderboard(ctx)

	if target == domain.StatusRejected {
		return &Outcome{Action: domain.ActionReject, Reference: ref}, nil
	}

	total, err := s.refRepo.CountApprovedForUser(ctx, ref.UserID)
	if err != nil {
		return nil, err
	}

	caption := photo.Caption
	if caption == "" {
		caption = ref.Caption
	}

	return &Outcome{
		Action:    domain.ActionApprove,
		Reference: ref,
		Photos:    []domain.ReferencePhoto{*photo},
		Total:     total,
		Publish: &domain.PublishRequest{
			ImageRefs: []string{photo.FileID},
			Caption:   s.renderCaption(ref, caption, total),
		},
	}, nil
}

func (s *service) decideSubmission(ctx context.Context, ref *domain.Reference, target domain.ReferenceStatus) (*Outcome, error) {
	if ref.Status == target {
		return s.alreadyOutcome(ctx, ref, target)
	}

	if err := s.refRepo.UpdateAllPhotoStatuses(ctx, ref.ID, target); err != nil {
		return nil, err
	}
	if err := s.refRepo.UpdateStatus(ctx, ref.ID, target); err != nil {
		return nil, err
	}
	ref.Status = target

	s.reports.InvalidateLeaderboard(ctx)

	if target == domain.StatusRejected {
		return &Outcome{Action: domain.ActionReject, Reference: ref}, nil
	}

	photos, err := s.refRepo.ListPhotos(ctx, ref.ID)
	if err != nil {
		return nil, err
	}
	total, err := s.refRepo.CountApprovedForUser(ctx, ref.UserID)
	if err != nil {
		return nil, err
	}

	imageRefs := make([]string, 0, len(photos))
	for i := range photos {
		photos[i].Status = target
		imageRefs = append(imageRefs, photos[i].FileID)
	}

	return &Outcome{
		Action:    domain.ActionApprove,
		Reference: ref,
		Photos:    photos,
		Total:     total,
		Publish: &domain.PublishRequest{
			ImageRefs: imageRefs,
			Caption:   s.renderCaption(ref, ref.Caption, total),
		},
	}, nil
}

func (s *service) alreadyOutcome(ctx context.Context, ref *domain.Reference, target domain.ReferenceStatus) (*Outcome, error) {
	out := &Outcome{Already: true, Reference: ref}
	if target == domain.StatusApproved {
		out.Action = domain.ActionApprove
		total, err := s.refRepo.CountApprovedForUser(ctx, ref.UserID)
		if err != nil {
			return nil, err
		}
		out.Total = total
		return out, nil
	}
	out.Action = domain.ActionReject
	return out, nil
}

const publishTemplate = `
𝓦inter 𝓡eferences 🪽⊹
‿‿‿‿‿‿‿‿‿‿‿‿‿‿‿

♪꒰ message : %s
♪꒰ name : %s
♪꒰ user : @%s
♪꒰ id : %d
‿‿‿‿‿‿‿‿‿‿‿‿‿‿‿

♪꒰ total refes : %d
♪꒰ time sent : %s
`

func (s *service) renderCaption(ref *domain.Reference, message string, total int64) string {
	if message == "" {
		message = "sin mensaje."
	}
	return fmt.Sprintf(publishTemplate,
		message, ref.Name, ref.Username, ref.UserID, total, s.now().Format("15:04:05"))
}
