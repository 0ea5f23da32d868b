// Package ses implements sender.EmailSender against AWS SES v2, following
// the teacher's esp_ses.go adapter.
package ses

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/sender"
)

// Sender sends emails via AWS SES using the SDK v2.
type Sender struct {
	region string
	client *sesv2.Client
}

// New creates an SES sender. The client is left nil when credentials are
// absent; Send then fails fast rather than making a doomed API call.
func New(ctx context.Context, accessKey, secretKey, region string) *Sender {
	if region == "" {
		region = "us-east-1"
	}
	s := &Sender{region: region}

	if accessKey != "" && secretKey != "" {
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		)
		if err != nil {
			log.Printf("[ses] failed to initialize AWS config: %v", err)
		} else {
			s.client = sesv2.NewFromConfig(cfg)
		}
	}
	return s
}

// Send delivers a single email through AWS SES.
func (s *Sender) Send(ctx context.Context, msg *sender.EmailMessage) (*sender.SendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("ses client not initialized: check credentials")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.TextContent != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		logging.Warn("ses_send_failed", "to", msg.To, "error", err.Error())
		return nil, fmt.Errorf("ses send: %w", err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	return &sender.SendResult{Success: true, MessageID: messageID, SentAt: time.Now().UTC()}, nil
}
