// internal/notify/digest.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonaws "demand-radar/internal/common/aws"
	"demand-radar/internal/common/config"
	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/common/validation"
	"demand-radar/internal/models"
)

const defaultDigestSize = 5

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends a short digest of the top ranked ideas over the
// configured channels. Delivery problems are logged, never propagated:
// a dead mail channel must not fail a ranking run.
type Notifier struct {
	cfg    config.NotificationConfig
	ses    SESService
	sns    SNSService
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func New(cfg config.NotificationConfig, sesSvc SESService, snsSvc SNSService, log logger.Logger) *Notifier {
	scoped := log.WithFields(map[string]interface{}{"component": "notify"})
	return &Notifier{
		cfg:    cfg,
		ses:    sesSvc,
		sns:    snsSvc,
		logger: scoped,
		errs:   commonerrors.NewErrorHandler(scoped),
	}
}

// NewFromConfig builds a notifier with real AWS clients. Only channels
// enabled in cfg get a client.
func NewFromConfig(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	var sesSvc SESService
	var snsSvc SNSService

	if cfg.Email.Enabled {
		if cfg.Email.FromEmail == "" || cfg.Email.ToEmail == "" {
			return nil, commonerrors.NewInvalidConfigurationError("notifications.email requires from_email and to_email")
		}
		if !validation.ValidateEmail(cfg.Email.FromEmail) || !validation.ValidateEmail(cfg.Email.ToEmail) {
			return nil, commonerrors.NewInvalidConfigurationError("notifications.email addresses are malformed")
		}
		client, err := commonaws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to build ses client: %w", err)
		}
		sesSvc = client
	}
	if cfg.SNS.Enabled {
		if cfg.SNS.TopicARN == "" {
			return nil, commonerrors.NewInvalidConfigurationError("notifications.sns requires topic_arn")
		}
		client, err := commonaws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to build sns client: %w", err)
		}
		snsSvc = client
	}

	return New(cfg, sesSvc, snsSvc, log), nil
}

// RankingDigest pushes the top of a freshly ranked idea list to every
// enabled channel. The slice is expected in rank order.
func (n *Notifier) RankingDigest(ctx context.Context, ideas []models.BusinessIdea) {
	if !n.cfg.Enabled() {
		return
	}

	size := n.cfg.DigestSize
	if size <= 0 {
		size = defaultDigestSize
	}
	if len(ideas) > size {
		ideas = ideas[:size]
	}
	if len(ideas) == 0 {
		n.logger.Info("ranking digest skipped", map[string]interface{}{
			"reason": "no ranked ideas",
		})
		return
	}

	subject := fmt.Sprintf("Demand radar: top %d ideas", len(ideas))
	body := digestBody(ideas)
	sent := 0

	if n.cfg.Email.Enabled && n.ses != nil {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			n.errs.Handle("digest email", err)
		} else {
			sent++
		}
	}
	if n.cfg.SNS.Enabled && n.sns != nil {
		if err := n.publish(ctx, subject, body); err != nil {
			n.errs.Handle("digest publish", err)
		} else {
			sent++
		}
	}

	n.logger.Info("ranking digest finished", map[string]interface{}{
		"ideas":    len(ideas),
		"channels": sent,
	})
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.cfg.Email.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	if err != nil {
		return commonerrors.NewNotificationError("email", err)
	}
	return nil
}

func (n *Notifier) publish(ctx context.Context, subject, body string) error {
	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SNS.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
	})
	if err != nil {
		return commonerrors.NewNotificationError("sns", err)
	}
	return nil
}

func digestBody(ideas []models.BusinessIdea) string {
	var b strings.Builder
	b.WriteString("Top ranked ideas from the latest scoring run:\n\n")
	for i, idea := range ideas {
		rank := i + 1
		if idea.Rank != nil {
			rank = *idea.Rank
		}
		total := 0.0
		if idea.TotalScore != nil {
			total = *idea.TotalScore
		}
		fmt.Fprintf(&b, "%d. %s (score %.1f)\n", rank, idea.Title, total)
		if idea.TargetUser != "" {
			fmt.Fprintf(&b, "   for: %s\n", idea.TargetUser)
		}
	}
	return b.String()
}
