// Package mail delivers outbound email. Sender is the transport capability;
// Dispatcher sends in the background and logs every outcome.
package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Message struct {
	Subject string
	Body    string
	To      string
}

// Sender delivers one message. Failures wrap common.ErrTransport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends plain-text mail through the SendGrid v3 API.
type SendGridSender struct {
	client sendGridClient
	from   *sgmail.Email
}

func NewSendGridSender(apiKey, fromAddress, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmailPlainText(s.from, msg.Subject, to, msg.Body)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", common.ErrTransport, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid status %d: %s", common.ErrTransport, resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when
// no SendGrid key is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "email not sent, no transport configured",
		"to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
