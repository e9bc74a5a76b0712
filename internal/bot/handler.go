// Package bot is the chat surface: it routes incoming Telegram updates to
// the services and converts every pipeline failure into a single
// user-visible reply. All user-facing strings live here.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dresesc/winter-references-bot/internal/config"
	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/service"
	"github.com/dresesc/winter-references-bot/internal/service/review"
	"github.com/dresesc/winter-references-bot/internal/service/submission"
)

// api is the slice of the Telegram client the handler uses, kept narrow so
// tests can fake it.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Handler struct {
	api        api
	httpClient *http.Client

	channelID       int64
	channelUsername string

	reviewer    domain.ReviewerPolicy
	granularity review.Granularity

	services *service.Services
	repos    *repository.Repositories

	// unpublished holds approvals whose channel publish failed, keyed by
	// reference and photo id, so the next click on the same button retries
	// the publish instead of short-circuiting on the recorded approval.
	pubMu       sync.Mutex
	unpublished map[string]*review.Outcome
}

func NewHandler(botAPI api, services *service.Services, repos *repository.Repositories, cfg *config.Config) *Handler {
	h := &Handler{
		api:         botAPI,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		reviewer:    domain.ReviewerPolicy{ReviewerID: cfg.ReviewerID},
		granularity: review.Granularity(cfg.ReviewGranularity),
		services:    services,
		repos:       repos,
		unpublished: make(map[string]*review.Outcome),
	}

	if id, err := strconv.ParseInt(cfg.ChannelID, 10, 64); err == nil {
		h.channelID = id
	} else {
		h.channelUsername = cfg.ChannelID
	}

	return h
}

// HandleUpdate dispatches one webhook update. Processing always runs to
// completion; there is no cancellation path for withdrawn messages.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(ctx, update.Message)
	case update.Message != nil:
		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	switch msg.Command() {
	case "winter":
		h.handleWinter(ctx, msg)
	case "refes":
		h.handleRefes(ctx, msg)
	case "conteo":
		h.handleConteo(ctx, msg)
	case "reset":
		h.handleReset(ctx, msg)
	}
}

// handleMessage buffers album photos until a /winter reply consumes them.
// Standalone photos need no buffering; the reply itself carries them.
func (h *Handler) handleMessage(msg *tgbotapi.Message) {
	if len(msg.Photo) == 0 || msg.MediaGroupID == "" {
		return
	}
	fileID := msg.Photo[len(msg.Photo)-1].FileID
	h.services.Albums.Observe(msg.MediaGroupID, fileID, msg.Caption)
}

func (h *Handler) handleWinter(ctx context.Context, msg *tgbotapi.Message) {
	var target *submission.Target
	if replied := msg.ReplyToMessage; replied != nil {
		target = &submission.Target{
			MessageID:    replied.MessageID,
			MediaGroupID: replied.MediaGroupID,
			Caption:      replied.Caption,
		}
		if len(replied.Photo) > 0 {
			target.PhotoFileID = replied.Photo[len(replied.Photo)-1].FileID
		}
	}

	submitter := domain.Submitter{
		ID:       msg.From.ID,
		Username: msg.From.UserName,
		FullName: fullName(msg.From),
	}

	ref, photos, err := h.services.Submission.Submit(ctx, target, submitter)
	if err != nil {
		h.reply(msg, submitErrorText(err))
		return
	}

	h.reply(msg, "¡gracias por tus referencias! han sido enviadas a revisión。。。 ♪")
	h.sendForReview(ref, photos, msg.From)
}

// sendForReview posts each photo to the reviewer with its decision buttons.
func (h *Handler) sendForReview(ref *domain.Reference, photos []domain.ReferencePhoto, from *tgbotapi.User) {
	mention := from.UserName
	if mention == "" {
		mention = strconv.FormatInt(from.ID, 10)
	}

	for _, photo := range photos {
		caption := photo.Caption
		if caption == "" {
			caption = ref.Caption
		}
		if caption == "" {
			caption = "sin mensaje."
		}

		keyboard := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✔️ aprobar", h.decisionToken(domain.ActionApprove, ref.ID, photo.ID)),
				tgbotapi.NewInlineKeyboardButtonData("✖️ rechazar", h.decisionToken(domain.ActionReject, ref.ID, photo.ID)),
			),
		)

		photoCfg := tgbotapi.NewPhoto(h.reviewer.ReviewerID, tgbotapi.FileID(photo.FileID))
		photoCfg.Caption = fmt.Sprintf("referencia enviada por @%s\n\n%s", mention, caption)
		photoCfg.ReplyMarkup = keyboard
		if _, err := h.api.Send(photoCfg); err != nil {
			log.Printf("Failed to send photo %d to reviewer: %v", photo.ID, err)
		}
	}
}

func (h *Handler) handleRefes(ctx context.Context, msg *tgbotapi.Message) {
	total, err := h.services.Report.UserTotal(ctx, msg.From.ID)
	if err != nil {
		h.reply(msg, "error consultando tus referencias, inténtalo de nuevo.")
		return
	}
	h.reply(msg, fmt.Sprintf(
		"🪽 。。。holi %s, actualmente llevas un total de %d referencias aprobadas en 𝔀inter 𝓹riv.",
		fullName(msg.From), total,
	))
}

func (h *Handler) handleConteo(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.requireReviewer(msg.From.ID); err != nil {
		h.reply(msg, permissionDeniedText)
		return
	}

	entries, err := h.services.Report.Leaderboard(ctx)
	if err != nil {
		h.reply(msg, "error consultando el ranking, inténtalo de nuevo.")
		return
	}
	if len(entries) == 0 {
		h.reply(msg, "no hay referencias registradas aún.")
		return
	}

	var sb strings.Builder
	sb.WriteString("𝓣otal 𝓡efes\n")
	for _, entry := range entries {
		fmt.Fprintf(&sb, "@%s : %d referencias\n", entry.Username, entry.Total)
	}
	h.reply(msg, sb.String())
}

func (h *Handler) handleReset(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.requireReviewer(msg.From.ID); err != nil {
		h.reply(msg, permissionDeniedText)
		return
	}

	if err := h.repos.Reference.ResetAll(ctx); err != nil {
		h.reply(msg, fmt.Sprintf("error al resetear la base de datos: %v", err))
		return
	}
	h.services.Report.InvalidateLeaderboard(ctx)

	h.reply(msg, "toda la base de datos ha sido reseteada.\nlas referencias se han reiniciado.")
}

const permissionDeniedText = "no tienes permiso para usar este comando."

// requireReviewer gates moderation-only actions behind the configured reviewer.
func (h *Handler) requireReviewer(userID int64) error {
	if !h.reviewer.Allows(userID) {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (h *Handler) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID
	if _, err := h.api.Send(reply); err != nil {
		log.Printf("Failed to send reply: %v", err)
	}
}

func submitErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTrigger):
		return "responde a tus referencias con /winter ❤︎"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "error al guardar la referencia, inténtalo de nuevo más tarde."
	default:
		return "ocurrió un error procesando tu referencia."
	}
}

func fullName(user *tgbotapi.User) string {
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
