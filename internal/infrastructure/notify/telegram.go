package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jhoicas/solar-inventario/internal/application/ordering"
	"github.com/jhoicas/solar-inventario/pkg/logger"
)

// ErrQueueFull la cola de envío está llena y el mensaje se descartó.
var ErrQueueFull = errors.New("cola de telegram llena")

const telegramQueue = 128

// Sender subconjunto de *tgbotapi.BotAPI usado para enviar mensajes.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier envía los resultados al chat de compras.
// Notify solo encola; Run hace los envíos para no bloquear las operaciones.
type TelegramNotifier struct {
	api    Sender
	chatID int64
	log    *logger.Logger
	queue  chan string
}

// NewTelegramNotifier conecta con la API de bots usando token.
func NewTelegramNotifier(token string, chatID int64, log *logger.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	return NewTelegramNotifierWithSender(api, chatID, log), nil
}

func NewTelegramNotifierWithSender(api Sender, chatID int64, log *logger.Logger) *TelegramNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		log:    log.Component("telegram"),
		queue:  make(chan string, telegramQueue),
	}
}

func (n *TelegramNotifier) Notify(_ context.Context, r ordering.Result) error {
	select {
	case n.queue <- FormatResult(r):
		return nil
	default:
		return ErrQueueFull
	}
}

// Run envía los mensajes encolados hasta que ctx se cancele.
func (n *TelegramNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
				n.log.Error().Err(err).Msg("send failed")
			}
		}
	}
}

// FormatResult texto del mensaje para un resultado.
func FormatResult(r ordering.Result) string {
	switch r.Outcome() {
	case "ok":
		return "✅ " + r.Message
	case "warning":
		return fmt.Sprintf("⚠️ %s\n%s", r.Message, r.Warning)
	default:
		text := "❌ " + r.Message
		if r.Retryable {
			text += "\nPuede reintentarse."
		}
		return text
	}
}
