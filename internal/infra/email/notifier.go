package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, to, pairID, videos, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("finwatch - Pair Processing Failed [%s]", pairID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"A stereo video pair failed to process. Its raw files were left\r\n"+
			"in place and will be retried on the next batch cycle.\r\n\r\n"+
			"Pair ID: %s\r\n"+
			"Videos: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"-- finwatch processing service",
		pairID, videos, errorMsg,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, to, subject, body,
	)

	err := smtp.SendMail(addr, nil, n.from, []string{to}, []byte(msg))
	if err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", to),
			zap.String("pair_id", pairID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", to),
		zap.String("pair_id", pairID),
	)
	return nil
}
