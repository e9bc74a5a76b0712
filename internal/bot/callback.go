package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/service/review"
)

var errInvalidToken = errors.New("invalid callback token")

// decisionToken builds the callback data for one decision button. Per-photo
// mode addresses a single photo; per-submission mode omits the photo id and
// the whole reference is decided at once.
func (h *Handler) decisionToken(action domain.DecisionAction, referenceID, photoID int64) string {
	if h.granularity == review.PerSubmission {
		return fmt.Sprintf("%s:%d", action, referenceID)
	}
	return fmt.Sprintf("%s:%d:%d", action, referenceID, photoID)
}

func (h *Handler) parseToken(data string) (domain.DecisionAction, int64, int64, error) {
	parts := strings.Split(data, ":")

	wantParts := 3
	if h.granularity == review.PerSubmission {
		wantParts = 2
	}
	if len(parts) != wantParts {
		return "", 0, 0, errInvalidToken
	}

	referenceID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, 0, errInvalidToken
	}

	var photoID int64
	if len(parts) == 3 {
		if photoID, err = strconv.ParseInt(parts[2], 10, 64); err != nil {
			return "", 0, 0, errInvalidToken
		}
	}

	return domain.DecisionAction(parts[0]), referenceID, photoID, nil
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := h.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Printf("Failed to answer callback query: %v", err)
	}

	action, referenceID, photoID, err := h.parseToken(q.Data)
	if err != nil {
		h.editCaption(q, "formato de callback inválido.")
		return
	}

	if err := h.requireReviewer(q.From.ID); err != nil {
		h.editCaption(q, permissionDeniedText)
		return
	}

	out, err := h.services.Review.Decide(ctx, review.Decision{
		Action:      action,
		ReferenceID: referenceID,
		PhotoID:     photoID,
	})
	if err != nil {
		h.editCaption(q, decisionErrorText(err))
		return
	}

	if out.Already {
		if out.Action == domain.ActionApprove {
			if h.retryPublish(ctx, q, referenceID, photoID) {
				return
			}
			h.editCaption(q, fmt.Sprintf("ya estaba aprobada. total del usuario: %d", out.Total))
		} else {
			h.editCaption(q, "ya estaba rechazada.")
		}
		return
	}

	if out.Publish == nil {
		h.dropUnpublished(referenceID, photoID)
		h.editCaption(q, "referencia rechazada.")
		return
	}

	if err := h.publish(out.Publish); err != nil {
		log.Printf("Failed to publish reference %d: %v", referenceID, err)
		h.stashUnpublished(referenceID, photoID, out)
		h.editCaption(q, "no se pudo publicar la referencia, pulsa aprobar de nuevo para reintentar.")
		return
	}

	h.dropUnpublished(referenceID, photoID)
	h.archivePhotos(ctx, out)
	h.editCaption(q, "referencia aprobada y publicada.")
}

// retryPublish re-sends a publish that failed after the approval was already
// recorded, so an approved reference cannot get stuck unpublished. Returns
// false when there is nothing pending for the target.
func (h *Handler) retryPublish(ctx context.Context, q *tgbotapi.CallbackQuery, referenceID, photoID int64) bool {
	h.pubMu.Lock()
	out, ok := h.unpublished[publishKey(referenceID, photoID)]
	h.pubMu.Unlock()
	if !ok {
		return false
	}

	if err := h.publish(out.Publish); err != nil {
		log.Printf("Failed to publish reference %d: %v", referenceID, err)
		h.editCaption(q, "no se pudo publicar la referencia, pulsa aprobar de nuevo para reintentar.")
		return true
	}

	h.dropUnpublished(referenceID, photoID)
	h.archivePhotos(ctx, out)
	h.editCaption(q, "referencia aprobada y publicada.")
	return true
}

func publishKey(referenceID, photoID int64) string {
	return strconv.FormatInt(referenceID, 10) + ":" + strconv.FormatInt(photoID, 10)
}

func (h *Handler) stashUnpublished(referenceID, photoID int64, out *review.Outcome) {
	h.pubMu.Lock()
	h.unpublished[publishKey(referenceID, photoID)] = out
	h.pubMu.Unlock()
}

func (h *Handler) dropUnpublished(referenceID, photoID int64) {
	h.pubMu.Lock()
	delete(h.unpublished, publishKey(referenceID, photoID))
	h.pubMu.Unlock()
}

func (h *Handler) publish(pub *domain.PublishRequest) error {
	if len(pub.ImageRefs) == 0 {
		return nil
	}

	if len(pub.ImageRefs) == 1 {
		photo := tgbotapi.NewPhoto(h.channelID, tgbotapi.FileID(pub.ImageRefs[0]))
		photo.ChannelUsername = h.channelUsername
		photo.Caption = pub.Caption
		_, err := h.api.Send(photo)
		return err
	}

	media := make([]interface{}, 0, len(pub.ImageRefs))
	for i, fileID := range pub.ImageRefs {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fileID))
		if i == 0 {
			item.Caption = pub.Caption
		}
		media = append(media, item)
	}

	_, err := h.api.SendMediaGroup(tgbotapi.MediaGroupConfig{
		ChatID:          h.channelID,
		ChannelUsername: h.channelUsername,
		Media:           media,
	})
	return err
}

// archivePhotos copies the just-published photos into object storage.
// Best effort: an archive failure never undoes or blocks the approval.
func (h *Handler) archivePhotos(ctx context.Context, out *review.Outcome) {
	if !h.services.Archive.Enabled() {
		return
	}

	for _, photo := range out.Photos {
		url, err := h.api.GetFileDirectURL(photo.FileID)
		if err != nil {
			log.Printf("Warning: could not resolve file %s: %v", photo.FileID, err)
			continue
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			continue
		}
		resp, err := h.httpClient.Do(req)
		if err != nil {
			log.Printf("Warning: could not download file %s: %v", photo.FileID, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			log.Printf("Warning: file download for %s returned %s", photo.FileID, resp.Status)
			continue
		}

		if _, err := h.services.Archive.Store(ctx, out.Reference.ID, photo.ID, resp.Body, resp.ContentLength, resp.Header.Get("Content-Type")); err != nil {
			log.Printf("Warning: failed to archive photo %d: %v", photo.ID, err)
		}
		resp.Body.Close()
	}
}

func (h *Handler) editCaption(q *tgbotapi.CallbackQuery, caption string) {
	if q.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageCaption(q.Message.Chat.ID, q.Message.MessageID, caption)
	if _, err := h.api.Request(edit); err != nil {
		log.Printf("Failed to edit review message caption: %v", err)
	}
}

func decisionErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "no se encontró la imagen."
	case errors.Is(err, domain.ErrUnknownAction):
		return "acción no reconocida."
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "error consultando la base de datos, vuelve a intentarlo."
	default:
		return "ocurrió un error aplicando la decisión."
	}
}
