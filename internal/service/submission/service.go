// Package submission turns a replied-to message, plus whatever its album
// buffered, into one persisted reference with its photos.
package submission

import (
	"context"
	"strconv"

	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/service/album"
)

// Target describes the replied-to message the /winter command points at.
type Target struct {
	MessageID    int
	MediaGroupID string
	PhotoFileID  string
	Caption      string
}

type Service interface {
	Submit(ctx context.Context, target *Target, submitter domain.Submitter) (*domain.Reference, []domain.ReferencePhoto, error)
}

type service struct {
	refRepo repository.ReferenceRepository
	albums  *album.Buffer
}

func NewService(refRepo repository.ReferenceRepository, albums *album.Buffer) Service {
	return &service{
		refRepo: refRepo,
		albums:  albums,
	}
}

// Submit creates the reference and all of its photos in a single store
// transaction and returns them in presentation order. A nil target means the
// command was not a reply to anything; no state is created.
//
// A target that carries neither buffered album photos nor a photo of its own
// still produces a reference, with zero photos, matching the tolerant
// behavior users already rely on.
func (s *service) Submit(ctx context.Context, target *Target, submitter domain.Submitter) (*domain.Reference, []domain.ReferencePhoto, error) {
	if target == nil {
		return nil, nil, domain.ErrInvalidTrigger
	}

	albumKey := target.MediaGroupID
	if albumKey == "" {
		albumKey = strconv.Itoa(target.MessageID)
	}

	username := submitter.Username
	if username == "" {
		username = "sin_username"
	}

	ref := &domain.Reference{
		MediaGroupID: albumKey,
		Caption:      target.Caption,
		UserID:       submitter.ID,
		Username:     username,
		Name:         submitter.FullName,
		Status:       domain.StatusPending,
	}

	var photos []domain.ReferencePhoto
	if entries := s.albums.Drain(albumKey); len(entries) > 0 {
		photos = make([]domain.ReferencePhoto, 0, len(entries))
		for _, entry := range entries {
			caption := entry.Caption
			if caption == "" {
				caption = ref.Caption
			}
			photos = append(photos, domain.ReferencePhoto{
				FileID:  entry.FileID,
				Caption: caption,
				Status:  domain.StatusPending,
			})
		}
	} else if target.PhotoFileID != "" {
		photos = []domain.ReferencePhoto{{
			FileID:  target.PhotoFileID,
			Caption: ref.Caption,
			Status:  domain.StatusPending,
		}}
	}

	if err := s.refRepo.CreateWithPhotos(ctx, ref, photos); err != nil {
		return nil, nil, err
	}

	return ref, photos, nil
}
