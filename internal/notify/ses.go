// internal/notify/ses.go

// Package notify delivers evaluation reports to the closing team by email.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "loan-conditions-engine/internal/common/errors"
	"loan-conditions-engine/internal/common/logger"
	"loan-conditions-engine/internal/models"
)

// EmailSender is the SES surface the notifier needs, narrowed for testing.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Notifier emails evaluation summaries through SES.
type Notifier struct {
	sender EmailSender
	from   string
	logger logger.Logger
}

func New(sender EmailSender, from string, log logger.Logger) *Notifier {
	return &Notifier{sender: sender, from: from, logger: log}
}

// NewFromRegion builds a notifier with a real SES client.
func NewFromRegion(ctx context.Context, region, from string, log logger.Logger) (*Notifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return New(ses.NewFromConfig(cfg), from, log), nil
}

// SendEvaluationReport emails a plain-text condition summary for one loan.
func (n *Notifier) SendEvaluationReport(ctx context.Context, to []string, result *models.EvaluationResult) error {
	if n.sender == nil || len(to) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Closing conditions for loan %s: %d conditions", result.LoanID, result.TotalConditions)
	body := buildReportBody(result)

	input := &ses.SendEmailInput{
		Source: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.sender.SendEmail(ctx, input); err != nil {
		n.logger.Error("failed to send evaluation report", map[string]interface{}{
			"loan_id": result.LoanID,
			"error":   err.Error(),
		})
		return apperrors.NewNotificationFailedError(err)
	}

	n.logger.Info("evaluation report sent", map[string]interface{}{
		"loan_id":    result.LoanID,
		"recipients": len(to),
	})
	return nil
}

func buildReportBody(result *models.EvaluationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Loan %s evaluated at %s\n", result.LoanID, result.EvaluationDate)
	fmt.Fprintf(&b, "Total conditions: %d\n\n", result.TotalConditions)

	for _, stage := range models.Stages {
		bucket := result.Conditions.Bucket(stage)
		fmt.Fprintf(&b, "%s (%d)\n", stage, len(bucket))
		for _, c := range bucket {
			fmt.Fprintf(&b, "  %s - %s\n", c.Code, c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}
