package notifyservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/mycogenesis/contenthub/internal/common"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

func NewNotifyService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *NotifyService {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotifyService{
		mb:     mb,
		m:      NewMailer(host, port, username, password, sender, NewTemplate()),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// sendWithRetry attempts delivery with exponential backoff and jitter.
func (s *NotifyService) sendWithRetry(recipient string, payload any, templateFile string) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(recipient, payload, templateFile)
		if err == nil {
			return true
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", recipient), slog.Int("attempt", attempt), slog.Duration("delay", delay))
		time.Sleep(delay)
	}

	return false
}

// SendActivationEmails consumes user.created events and mails the activation
// token to the new account.
func (s *NotifyService) SendActivationEmails() {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.ContentExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go s.consume(msgs, func(msg amqp.Delivery) {
		var data struct {
			Email string
			Token string
		}

		if err := json.Unmarshal(msg.Body, &data); err != nil {
			s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
			return
		}

		payload := struct {
			ActivationToken string
		}{
			ActivationToken: data.Token,
		}

		if s.sendWithRetry(data.Email, payload, "activation_email.html") {
			s.logger.Info("activation email sent", slog.String("email", data.Email))
		} else {
			s.logger.Error("could not send activation email", slog.String("email", data.Email))
		}
	})
}

// SendPublishNotifications consumes post.published events and mails the
// author that their post went live.
func (s *NotifyService) SendPublishNotifications() {
	msgs, err := s.mb.Consume(common.PostPublishedKey, common.ContentExchange, common.PostPublishedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go s.consume(msgs, func(msg amqp.Delivery) {
		var event struct {
			Payload struct {
				Title       string `json:"title"`
				Slug        string `json:"slug"`
				AuthorEmail string `json:"author_email"`
			} `json:"payload"`
		}

		if err := json.Unmarshal(msg.Body, &event); err != nil {
			s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
			return
		}

		if event.Payload.AuthorEmail == "" {
			return
		}

		payload := struct {
			Title string
			Slug  string
		}{
			Title: event.Payload.Title,
			Slug:  event.Payload.Slug,
		}

		if s.sendWithRetry(event.Payload.AuthorEmail, payload, "post_published.html") {
			s.logger.Info("publish notification sent", slog.String("email", event.Payload.AuthorEmail), slog.String("slug", event.Payload.Slug))
		} else {
			s.logger.Error("could not send publish notification", slog.String("email", event.Payload.AuthorEmail))
		}
	})
}

func (s *NotifyService) consume(msgs <-chan amqp.Delivery, handle func(amqp.Delivery)) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			handle(msg)
			msg.Ack(false)

		case <-s.ctx.Done():
			s.logger.Info("stopping consumer due to context cancellation")
			return
		}
	}
}

func (s *NotifyService) Close() {
	s.cancel()
}
