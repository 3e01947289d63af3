package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"boostify/internal/logger"
	"boostify/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "boostify:emails"
	failedKey      = "boostify:emails:failed"
	maxSendRetries = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		return err
	}

	logger.Infof("Email queued: %s to %s", job.Subject, job.To)
	return nil
}

// Send queues an arbitrary email. The domain helpers below are the
// usual entry points.
func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, Job{
		To:      to,
		Name:    name,
		Type:    "generic",
		Subject: subject,
		Body:    body,
	})
}

func (s *Service) SendOrderClaimed(ctx context.Context, to, name, game, boosterName string) error {
	return s.enqueue(ctx, Job{
		To:      to,
		Name:    name,
		Type:    "order_claimed",
		Subject: "Your boost has been picked up",
		Body:    fmt.Sprintf("Hi %s,\n\n%s has started working on your %s boost. You can follow progress in the order chat.", name, boosterName, game),
	})
}

func (s *Service) SendOrderCompleted(ctx context.Context, to, name, game string) error {
	return s.enqueue(ctx, Job{
		To:      to,
		Name:    name,
		Type:    "order_completed",
		Subject: "Your boost is ready for review",
		Body:    fmt.Sprintf("Hi %s,\n\nYour %s boost has been marked complete. Please review the result and approve or reject it.", name, game),
	})
}

func (s *Service) SendOrderApproved(ctx context.Context, to, name string, payoutCents int64) error {
	return s.enqueue(ctx, Job{
		To:      to,
		Name:    name,
		Type:    "order_approved",
		Subject: "Payout released",
		Body:    fmt.Sprintf("Hi %s,\n\nThe customer approved the order. Your payout of $%.2f has been released.", name, float64(payoutCents)/100),
	})
}

func (s *Service) SendOrderRejected(ctx context.Context, to, name, reason string) error {
	return s.enqueue(ctx, Job{
		To:      to,
		Name:    name,
		Type:    "order_rejected",
		Subject: "Order rejected",
		Body:    fmt.Sprintf("Hi %s,\n\nThe customer rejected the order. Reason: %s", name, reason),
	})
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Infof("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Infof("Email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email job data: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)
		metrics.RecordEmail(job.Type, "failed")

		if job.Tries < maxSendRetries {
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxSendRetries)
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail(job.Type, "success")
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, sendErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"at":    time.Now(),
	}

	data, err := json.Marshal(failed)
	if err != nil {
		return
	}

	if err := s.redis.LPush(context.Background(), failedKey, data).Err(); err != nil {
		logger.Errorf("Failed to record dead email job: %v", err)
	}
}
