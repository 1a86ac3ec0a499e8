package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers listing batches as one HTML message per batch. Bot
// clients are cached per token since bindings of different jobs may share
// a bot.
type Telegram struct {
	mu   sync.Mutex
	bots map[string]botAPI

	newBot func(token string) (botAPI, error)
}

func NewTelegram() *Telegram {
	return &Telegram{
		bots: map[string]botAPI{},
		newBot: func(token string) (botAPI, error) {
			return tgbotapi.NewBotAPI(token)
		},
	}
}

func (t *Telegram) ID() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, msg Message, config map[string]string) error {

	token := config["token"]
	if token == "" {
		return errors.New("telegram binding is missing token")
	}

	chatID, err := strconv.ParseInt(config["chat_id"], 10, 64)
	if err != nil {
		return errors.Wrap(err, "telegram binding has invalid chat_id")
	}

	bot, err := t.bot(token)
	if err != nil {
		return errors.Wrap(err, "can't create telegram bot")
	}

	message := tgbotapi.NewMessage(chatID, formatListings(msg))
	message.ParseMode = tgbotapi.ModeHTML
	message.DisableWebPagePreview = true

	_, err = bot.Send(message)
	return err
}

func (t *Telegram) bot(token string) (botAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if bot, ok := t.bots[token]; ok {
		return bot, nil
	}
	bot, err := t.newBot(token)
	if err != nil {
		return nil, err
	}
	t.bots[token] = bot
	return bot, nil
}

func formatListings(msg Message) string {

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>: %d new listings\n", msg.JobName, len(msg.Listings))

	for _, listing := range msg.Listings {
		url := listing.TrackingURL
		if url == "" {
			url = listing.URL
		}
		fmt.Fprintf(&b, "\n<a href=\"%s\">%s</a>", url, listing.Title)
		if listing.Price != nil {
			fmt.Fprintf(&b, " · %.0f €", *listing.Price)
		}
		if listing.Size != nil {
			fmt.Fprintf(&b, ", %.0f m²", *listing.Size)
		}
		if listing.Location.City != nil {
			fmt.Fprintf(&b, " (%s)", *listing.Location.City)
		}
	}
	return b.String()
}
