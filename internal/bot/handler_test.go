package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dresesc/winter-references-bot/internal/config"
	"github.com/dresesc/winter-references-bot/internal/domain"
	"github.com/dresesc/winter-references-bot/internal/mocks"
	"github.com/dresesc/winter-references-bot/internal/repository"
	"github.com/dresesc/winter-references-bot/internal/service"
)

type fakeAPI struct {
	sent        []tgbotapi.Chattable
	requests    []tgbotapi.Chattable
	mediaGroups []tgbotapi.MediaGroupConfig
	sendErr     error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	f.mediaGroups = append(f.mediaGroups, cfg)
	return nil, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return "", errors.New("file links not available in tests")
}

func (f *fakeAPI) lastMessageText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg.Text
		}
	}
	return ""
}

func (f *fakeAPI) lastEditCaption() string {
	for i := len(f.requests) - 1; i >= 0; i-- {
		if edit, ok := f.requests[i].(tgbotapi.EditMessageCaptionConfig); ok {
			return edit.Caption
		}
	}
	return ""
}

func newTestHandler(t *testing.T, repo *mocks.ReferenceRepository) (*Handler, *fakeAPI) {
	t.Helper()

	cfg := &config.Config{
		ChannelID:         "-100555",
		ReviewerID:        99,
		ReviewGranularity: "per-photo",
	}
	repos := &repository.Repositories{Reference: repo}
	services := service.NewServices(repos, nil, nil, cfg)

	fake := &fakeAPI{}
	return NewHandler(fake, services, repos, cfg), fake
}

func commandMessage(fromID int64, username, command string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: fromID, UserName: username, FirstName: "User"},
		Chat:      &tgbotapi.Chat{ID: 500},
		Text:      "/" + command,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(command) + 1},
		},
	}
}

func TestHandleUpdate_BuffersAlbumPhotos(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, _ := newTestHandler(t, repo)

	handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID:    2,
		Chat:         &tgbotapi.Chat{ID: 500},
		MediaGroupID: "g1",
		Photo:        []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
		Caption:      "hello",
	}})

	entries := handler.services.Albums.Drain("g1")
	assert.Len(t, entries, 1)
	assert.Equal(t, "large", entries[0].FileID, "the largest photo size is the one buffered")
	assert.Equal(t, "hello", entries[0].Caption)
}

func TestHandleWinter_WithoutReply(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(7, "u7", "winter")})

	assert.Equal(t, "responde a tus referencias con /winter ❤︎", fake.lastMessageText())
	repo.AssertNotCalled(t, "CreateWithPhotos", mock.Anything, mock.Anything, mock.Anything)
}

func TestEndToEnd_SubmitThenApprove(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	repo.On("CreateWithPhotos", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ref := args.Get(1).(*domain.Reference)
			ref.ID = 1
			photos := args.Get(2).([]domain.ReferencePhoto)
			for i := range photos {
				photos[i].ID = int64(i + 1)
				photos[i].ReferenceID = ref.ID
			}
		}).
		Return(nil).Once()

	msg := commandMessage(7, "u7", "winter")
	msg.ReplyToMessage = &tgbotapi.Message{
		MessageID: 42,
		Caption:   "look",
		Photo:     []tgbotapi.PhotoSize{{FileID: "file-1"}},
	}
	handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})

	assert.Equal(t, "¡gracias por tus referencias! han sido enviadas a revisión。。。 ♪", fake.lastMessageText())

	// one photo went to the reviewer with the decision buttons
	reviewPhoto, ok := fake.sent[len(fake.sent)-1].(tgbotapi.PhotoConfig)
	assert.True(t, ok)
	assert.Equal(t, int64(99), reviewPhoto.ChatID)
	assert.Contains(t, reviewPhoto.Caption, "referencia enviada por @u7")
	keyboard := reviewPhoto.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, "aprobar:1:1", *keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "rechazar:1:1", *keyboard.InlineKeyboard[0][1].CallbackData)

	// reviewer approves
	ref := &domain.Reference{ID: 1, Caption: "look", UserID: 7, Username: "u7", Name: "User", Status: domain.StatusPending}
	repo.On("GetByID", mock.Anything, int64(1)).Return(ref, nil).Once()
	repo.On("GetPhoto", mock.Anything, int64(1)).Return(&domain.ReferencePhoto{
		ID: 1, ReferenceID: 1, FileID: "file-1", Caption: "look", Status: domain.StatusPending,
	}, nil).Once()
	repo.On("UpdatePhotoStatus", mock.Anything, int64(1), domain.StatusApproved).Return(nil).Once()
	repo.On("CountPhotoStatuses", mock.Anything, int64(1)).Return(int64(0), int64(1), int64(0), nil).Once()
	repo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusApproved).Return(nil).Once()
	repo.On("CountApprovedForUser", mock.Anything, int64(7)).Return(int64(1), nil)

	handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "aprobar:1:1",
		From:    &tgbotapi.User{ID: 99},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 99}},
	}})

	published, ok := fake.sent[len(fake.sent)-1].(tgbotapi.PhotoConfig)
	assert.True(t, ok)
	assert.Contains(t, published.Caption, "look")
	assert.Contains(t, published.Caption, "@u7")
	assert.Contains(t, published.Caption, "id : 7")
	assert.Contains(t, published.Caption, "total refes : 1")
	assert.Equal(t, "referencia aprobada y publicada.", fake.lastEditCaption())

	// approving again mutates nothing and reports the standing total
	repo.On("GetByID", mock.Anything, int64(1)).Return(ref, nil).Once()
	repo.On("GetPhoto", mock.Anything, int64(1)).Return(&domain.ReferencePhoto{
		ID: 1, ReferenceID: 1, FileID: "file-1", Caption: "look", Status: domain.StatusApproved,
	}, nil).Once()

	handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb2",
		Data:    "aprobar:1:1",
		From:    &tgbotapi.User{ID: 99},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 99}},
	}})

	assert.Equal(t, "ya estaba aprobada. total del usuario: 1", fake.lastEditCaption())
	repo.AssertNumberOfCalls(t, "UpdatePhotoStatus", 1)

	repo.AssertExpectations(t)
}

func TestHandleCallback_RetriesFailedPublish(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	ref := &domain.Reference{ID: 1, Caption: "look", UserID: 7, Username: "u7", Name: "User", Status: domain.StatusPending}
	repo.On("GetByID", mock.Anything, int64(1)).Return(ref, nil)
	repo.On("GetPhoto", mock.Anything, int64(1)).Return(&domain.ReferencePhoto{
		ID: 1, ReferenceID: 1, FileID: "file-1", Caption: "look", Status: domain.StatusPending,
	}, nil).Once()
	repo.On("UpdatePhotoStatus", mock.Anything, int64(1), domain.StatusApproved).Return(nil).Once()
	repo.On("CountPhotoStatuses", mock.Anything, int64(1)).Return(int64(0), int64(1), int64(0), nil).Once()
	repo.On("UpdateStatus", mock.Anything, int64(1), domain.StatusApproved).Return(nil).Once()
	repo.On("CountApprovedForUser", mock.Anything, int64(7)).Return(int64(1), nil)

	approve := func(id string) {
		handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      id,
			Data:    "aprobar:1:1",
			From:    &tgbotapi.User{ID: 99},
			Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 99}},
		}})
	}

	// the approval is recorded but the channel send fails
	fake.sendErr = errors.New("channel unreachable")
	approve("cb1")

	assert.Equal(t, "no se pudo publicar la referencia, pulsa aprobar de nuevo para reintentar.", fake.lastEditCaption())
	repo.AssertNumberOfCalls(t, "UpdatePhotoStatus", 1)

	// the next click on the same button re-sends the publish instead of
	// stopping at the recorded approval
	fake.sendErr = nil
	repo.On("GetPhoto", mock.Anything, int64(1)).Return(&domain.ReferencePhoto{
		ID: 1, ReferenceID: 1, FileID: "file-1", Caption: "look", Status: domain.StatusApproved,
	}, nil)
	approve("cb2")

	published, ok := fake.sent[len(fake.sent)-1].(tgbotapi.PhotoConfig)
	assert.True(t, ok)
	assert.Contains(t, published.Caption, "@u7")
	assert.Equal(t, "referencia aprobada y publicada.", fake.lastEditCaption())
	repo.AssertNumberOfCalls(t, "UpdatePhotoStatus", 1)

	// once published, further clicks short-circuit again
	approve("cb3")
	assert.Equal(t, "ya estaba aprobada. total del usuario: 1", fake.lastEditCaption())
}

func TestHandleCallback_InvalidTokenFormat(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "garbage",
		From:    &tgbotapi.User{ID: 99},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 99}},
	}})

	assert.Equal(t, "formato de callback inválido.", fake.lastEditCaption())
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandleCallback_NonReviewerDenied(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "aprobar:1:1",
		From:    &tgbotapi.User{ID: 7},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 7}},
	}})

	assert.Equal(t, "no tienes permiso para usar este comando.", fake.lastEditCaption())
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHandleCallback_MissingPhoto(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	repo.On("GetByID", mock.Anything, int64(5)).Return(&domain.Reference{ID: 5, UserID: 7, Status: domain.StatusPending}, nil).Once()
	repo.On("GetPhoto", mock.Anything, int64(9)).Return(nil, domain.ErrNotFound).Once()

	handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "rechazar:5:9",
		From:    &tgbotapi.User{ID: 99},
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: 99}},
	}})

	assert.Equal(t, "no se encontró la imagen.", fake.lastEditCaption())
	repo.AssertNotCalled(t, "UpdatePhotoStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleRefes(t *testing.T) {
	repo := new(mocks.ReferenceRepository)
	handler, fake := newTestHandler(t, repo)

	repo.On("CountApprovedForUser", mock.Anything, int64(7)).Return(int64(3), nil).Once()

	handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(7, "u7", "refes")})

	assert.Contains(t, fake.lastMessageText(), "un total de 3 referencias aprobadas")
}

func TestHandleConteo(t *testing.T) {
	t.Run("non-reviewer is denied", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(7, "u7", "conteo")})

		assert.Equal(t, "no tienes permiso para usar este comando.", fake.lastMessageText())
		repo.AssertNotCalled(t, "Ranking", mock.Anything)
	})

	t.Run("reviewer gets the ranking", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		repo.On("Ranking", mock.Anything).Return([]domain.RankingEntry{
			{Username: "u7", Total: 5},
			{Username: "u8", Total: 2},
		}, nil).Once()

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(99, "rev", "conteo")})

		text := fake.lastMessageText()
		assert.Contains(t, text, "@u7 : 5 referencias")
		assert.Contains(t, text, "@u8 : 2 referencias")
	})

	t.Run("empty ranking", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		repo.On("Ranking", mock.Anything).Return([]domain.RankingEntry{}, nil).Once()

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(99, "rev", "conteo")})

		assert.Equal(t, "no hay referencias registradas aún.", fake.lastMessageText())
	})
}

func TestHandleReset(t *testing.T) {
	t.Run("non-reviewer is denied", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(7, "u7", "reset")})

		assert.Equal(t, "no tienes permiso para usar este comando.", fake.lastMessageText())
		repo.AssertNotCalled(t, "ResetAll", mock.Anything)
	})

	t.Run("reviewer resets everything", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		repo.On("ResetAll", mock.Anything).Return(nil).Once()

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(99, "rev", "reset")})

		assert.Contains(t, fake.lastMessageText(), "toda la base de datos ha sido reseteada.")
		repo.AssertExpectations(t)
	})

	t.Run("failed reset is reported once", func(t *testing.T) {
		repo := new(mocks.ReferenceRepository)
		handler, fake := newTestHandler(t, repo)

		repo.On("ResetAll", mock.Anything).Return(domain.ErrStoreUnavailable).Once()

		handler.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(99, "rev", "reset")})

		assert.Contains(t, fake.lastMessageText(), "error al resetear la base de datos")
		repo.AssertNumberOfCalls(t, "ResetAll", 1)
	})
}
