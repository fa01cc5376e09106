package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fiapx/fiapx-keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host     string
	port     int
	from     string
	fallback string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger   *zap.Logger
}

// NewSMTPNotifier sends failure notices through an unauthenticated relay.
// Notices without a user address go to fallback.
func NewSMTPNotifier(host string, port int, from, fallback string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		from:     from,
		fallback: fallback,
		send:     smtp.SendMail,
		logger:   logger,
	}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, notice port.FailureNotice) error {
	to := notice.UserEmail
	if to == "" {
		to = n.fallback
	}
	if to == "" {
		n.logger.Warn("no recipient for failure notice", zap.String("job_id", notice.JobID))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)
	if err := n.send(addr, nil, n.from, []string{to}, buildMessage(n.from, to, notice)); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", to),
			zap.String("job_id", notice.JobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", to),
		zap.String("job_id", notice.JobID),
	)
	return nil
}

func buildMessage(from, to string, notice port.FailureNotice) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: FIAP X - Keyframe Selection Failed [Job %s]\r\n", notice.JobID)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString("Hello,\r\n\r\n")
	b.WriteString("Keyframe selection for your video could not be completed.\r\n\r\n")
	fmt.Fprintf(&b, "Job ID: %s\r\n", notice.JobID)
	fmt.Fprintf(&b, "Video: %s\r\n", notice.VideoKey)
	if notice.Strategy != "" {
		fmt.Fprintf(&b, "Strategy: %s\r\n", notice.Strategy)
	}
	fmt.Fprintf(&b, "Error: %s\r\n\r\n", notice.Reason)
	b.WriteString("Please check the selection parameters and submit the video again, or contact support.\r\n\r\n")
	b.WriteString("-- FIAP X Keyframe Service")
	return []byte(b.String())
}
