// Package telegram delivers frequency reports to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"animalitos-stats/models"
	"animalitos-stats/services"
	"animalitos-stats/utils"
)

// MaxMessageLen is the Telegram limit on the text of a single message.
const MaxMessageLen = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sink sends the text rendering of a report as one or more plain messages.
type Sink struct {
	bot    sender
	chatID int64
	retry  utils.RetryConfig
	logger *utils.Logger
}

// NewSink connects to the Bot API with token. The connection check is made
// by the library itself, so a bad token fails here rather than on Render.
func NewSink(token, chatID string, maxRetries int, logger *utils.Logger) (*Sink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return newSink(bot, chatID, maxRetries, time.Second, logger)
}

func newSink(bot sender, chatID string, maxRetries int, delay time.Duration, logger *utils.Logger) (*Sink, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid chat ID %q: %w", chatID, err)
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Sink{
		bot:    bot,
		chatID: id,
		retry:  utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: delay, Logger: logger},
		logger: logger,
	}, nil
}

func (s *Sink) Render(r *models.FrequencyReport) error {
	if r.Empty() {
		s.logger.Warn("[telegram] Nothing to send for %s", r.Source)
		return nil
	}

	ctx := context.Background()
	parts := Split(FormatMessage(r), MaxMessageLen)

	for i, part := range parts {
		msg := tgbotapi.NewMessage(s.chatID, part)
		name := fmt.Sprintf("telegram message %d/%d", i+1, len(parts))
		err := s.retry.Do(ctx, name, func(ctx context.Context) error {
			_, err := s.bot.Send(msg)
			return err
		})
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
	}

	s.logger.Info("[telegram] Report sent in %d message(s)", len(parts))
	return nil
}

// FormatMessage prefixes the text report with a title line.
func FormatMessage(r *models.FrequencyReport) string {
	title := "Animal frequencies for " + r.Source
	if r.Grouped() {
		title += " by " + r.GroupBy
	}
	title += fmt.Sprintf(" (%d draws)", r.Overall.Total)

	body := services.FormatText(r)
	if body == "" {
		body = "No draws to report.\n"
	}
	return title + "\n\n" + body
}

// Split breaks text into chunks of at most limit runes, cutting on line
// boundaries whenever a line fits.
func Split(text string, limit int) []string {
	text = strings.TrimRight(text, "\n")
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if n > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			n = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			head, rest := cutRunes(line, limit)
			chunks = append(chunks, head)
			line, ln = rest, ln-limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return chunks
}

func cutRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
