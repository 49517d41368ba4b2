package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"normal_oj/internal/domain/model"
)

// Mailer hands outbound mail to the external delivery worker. Callers must
// only invoke it after the token write it refers to is durable; a failure
// here never rolls that write back.
type Mailer interface {
	SendWelcome(ctx context.Context, user *model.User) error
	SendForgotPassword(ctx context.Context, user *model.User) error
}

const (
	jobWelcome        = "welcome"
	jobForgotPassword = "forgot_password"
)

type mailJob struct {
	Kind     string `json:"kind"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// RedisMailer pushes mail jobs onto a Redis list consumed by the delivery
// worker.
type RedisMailer struct {
	rdb   *redis.Client
	queue string
}

func NewRedisMailer(rdb *redis.Client, queue string) *RedisMailer {
	return &RedisMailer{rdb: rdb, queue: queue}
}

func (m *RedisMailer) SendWelcome(ctx context.Context, user *model.User) error {
	var token string
	if user.EmailVerificationToken != nil {
		token = *user.EmailVerificationToken
	}
	return m.enqueue(ctx, mailJob{
		Kind:     jobWelcome,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	})
}

func (m *RedisMailer) SendForgotPassword(ctx context.Context, user *model.User) error {
	var token string
	if user.ResetToken != nil {
		token = *user.ResetToken
	}
	return m.enqueue(ctx, mailJob{
		Kind:     jobForgotPassword,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	})
}

func (m *RedisMailer) enqueue(ctx context.Context, job mailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("mailer: marshal job: %w", err)
	}
	if err := m.rdb.LPush(ctx, m.queue, payload).Err(); err != nil {
		return fmt.Errorf("mailer: enqueue %s mail: %w", job.Kind, err)
	}
	return nil
}
