package notify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mwehner/immowatch/internal/domain/models"
)

type recordingAdapter struct {
	id string

	mu      sync.Mutex
	calls   []Message
	configs []map[string]string
	err     error
}

func (a *recordingAdapter) ID() string { return a.id }

func (a *recordingAdapter) Send(_ context.Context, msg Message, config map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, msg)
	a.configs = append(a.configs, config)
	return a.err
}

func jobWithBindings(bindings ...models.NotificationBinding) models.Job {
	return models.Job{ID: "job-1", Name: "Berlin Flats", NotificationBindings: bindings}
}

func Test_Dispatcher_FansOutToConfiguredAdapters(t *testing.T) {

	first := &recordingAdapter{id: "telegram"}
	second := &recordingAdapter{id: "webhook"}
	dispatcher := NewDispatcher(first, second)

	job := jobWithBindings(
		models.NotificationBinding{AdapterID: "telegram", Fields: `{"token":"t","chat_id":"1"}`},
		models.NotificationBinding{AdapterID: "webhook", Fields: `{"url":"https://hook"}`},
	)
	listings := []models.Listing{{ID: "l1", Title: "Flat"}}

	dispatcher.Send(context.Background(), job, listings)

	assert.Len(t, first.calls, 1)
	assert.Len(t, second.calls, 1)
	assert.Equal(t, "job-1", first.calls[0].JobID)
	assert.Equal(t, "t", first.configs[0]["token"])
	assert.Equal(t, "https://hook", second.configs[0]["url"])
}

func Test_Dispatcher_SkipsUnknownAdapter(t *testing.T) {

	known := &recordingAdapter{id: "telegram"}
	dispatcher := NewDispatcher(known)

	job := jobWithBindings(
		models.NotificationBinding{AdapterID: "pager"},
		models.NotificationBinding{AdapterID: "telegram"},
	)

	dispatcher.Send(context.Background(), job, []models.Listing{{ID: "l1", Title: "Flat"}})
	assert.Len(t, known.calls, 1)
}

func Test_Dispatcher_EmptyBatchIsNoop(t *testing.T) {

	adapter := &recordingAdapter{id: "telegram"}
	dispatcher := NewDispatcher(adapter)

	dispatcher.Send(context.Background(), jobWithBindings(models.NotificationBinding{AdapterID: "telegram"}), nil)
	assert.Empty(t, adapter.calls)
}

type mockBot struct {
	mock.Mock
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func Test_Telegram_SendsFormattedBatch(t *testing.T) {

	bot := &mockBot{}
	bot.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42 &&
			msg.ParseMode == tgbotapi.ModeHTML
	})).Return(tgbotapi.Message{}, nil)

	telegram := NewTelegram()
	telegram.newBot = func(string) (botAPI, error) { return bot, nil }

	price := 1250.0
	err := telegram.Send(context.Background(), Message{
		JobName:  "Berlin Flats",
		Listings: []models.Listing{{Title: "Altbau", URL: "https://x", Price: &price}},
	}, map[string]string{"token": "t", "chat_id": "42"})

	assert.NoError(t, err)
	bot.AssertExpectations(t)
}

func Test_Telegram_MissingConfigFails(t *testing.T) {

	telegram := NewTelegram()

	err := telegram.Send(context.Background(), Message{}, map[string]string{"chat_id": "42"})
	assert.Error(t, err)

	err = telegram.Send(context.Background(), Message{}, map[string]string{"token": "t", "chat_id": "abc"})
	assert.Error(t, err)
}

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func Test_Webhook_PostsJSON(t *testing.T) {

	client := &mockHTTPClient{}
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Method == http.MethodPost && req.URL.String() == "https://hook.example.com/new"
	})).Return(&http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil)

	webhook := NewWebhook()
	webhook.SetHTTPClient(client)

	err := webhook.Send(context.Background(), Message{JobID: "job-1", Listings: []models.Listing{{ID: "l1"}}},
		map[string]string{"url": "https://hook.example.com/new"})

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func Test_Webhook_NonSuccessStatusFails(t *testing.T) {

	client := &mockHTTPClient{}
	client.On("Do", mock.Anything).
		Return(&http.Response{StatusCode: 500, Body: io.NopCloser(bytes.NewBufferString("boom"))}, nil)

	webhook := NewWebhook()
	webhook.SetHTTPClient(client)

	err := webhook.Send(context.Background(), Message{}, map[string]string{"url": "https://hook.example.com"})
	assert.Error(t, err)
}
