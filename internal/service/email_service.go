package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// ReceiptEmail is the content of a payment confirmation
type ReceiptEmail struct {
	Kind        string
	PaymentID   string
	AmountCents int64
	CardBrand   string
	CardLast4   string
	ReceiptURL  string
	Names       []string
}

// NewEmailService creates a new email service. An empty fromEmail yields a
// disabled service that logs and skips every send.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Info().Msg("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			appBaseURL: appBaseURL,
			enabled:    false,
			debug:      debug,
		}, nil
	}

	log.Debug().
		Str("region", awsRegion).
		Str("from", fromEmail).
		Str("base_url", appBaseURL).
		Msg("Initializing email service with AWS SES")

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)

	log.Info().Str("from", fromEmail).Str("region", awsRegion).Msg("Email service enabled")

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// VerificationLink is the URL a new account holder follows to confirm their email
func (s *EmailService) VerificationLink(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", s.appBaseURL, token)
}

const emailLayout = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #1f6f43; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #1f6f43; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>%s</h1>
		</div>
		<div class="content">
%s
		</div>
		<div class="footer">
			<p>This is an automated email from League Registration. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`

// SendVerificationEmail sends the link that confirms a new account's email address
func (s *EmailService) SendVerificationEmail(ctx context.Context, toEmail, toName, token string) error {
	if !s.enabled {
		log.Info().Str("to", toEmail).Msg("Skipping email send (service disabled): verification")
		return nil
	}

	link := s.VerificationLink(token)
	subject := "Confirm your email address"
	content := fmt.Sprintf(`
			<p>Hi %s,</p>
			<p>Thanks for creating an account. Please confirm your email address to continue your registration.</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Confirm Email</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p>If you didn't create an account, you can safely ignore this email.</p>`,
		html.EscapeString(toName), link, link)

	textBody := fmt.Sprintf(`Hi %s,

Thanks for creating an account. Please confirm your email address to continue your registration:
%s

If you didn't create an account, you can safely ignore this email.
`, toName, link)

	return s.sendEmail(ctx, toEmail, subject, fmt.Sprintf(emailLayout, "Confirm your email", content), textBody)
}

// SendPaymentReceipt confirms a completed registration payment
func (s *EmailService) SendPaymentReceipt(ctx context.Context, toEmail string, r ReceiptEmail) error {
	if !s.enabled {
		log.Info().Str("to", toEmail).Str("payment_id", r.PaymentID).Msg("Skipping email send (service disabled): receipt")
		return nil
	}

	subject := fmt.Sprintf("Your %s registration is confirmed", r.Kind)
	amount := models.FormatCents(r.AmountCents)
	card := strings.TrimSpace(r.CardBrand + " ending in " + r.CardLast4)
	if r.CardLast4 == "" {
		card = r.CardBrand
	}

	var items strings.Builder
	for _, name := range r.Names {
		fmt.Fprintf(&items, "\t\t\t\t<li>%s</li>\n", html.EscapeString(name))
	}
	content := fmt.Sprintf(`
			<p>Thank you! We received your payment of <strong>%s</strong>.</p>
			<p>Registered:</p>
			<ul>
%s			</ul>
			<p>Card: %s<br>Payment ID: %s</p>`,
		amount, items.String(), html.EscapeString(card), html.EscapeString(r.PaymentID))
	if r.ReceiptURL != "" {
		content += fmt.Sprintf(`
			<p style="text-align: center;"><a href="%s" class="button">View Receipt</a></p>`, r.ReceiptURL)
	}

	textBody := fmt.Sprintf(`Thank you! We received your payment of %s.

Registered: %s
Card: %s
Payment ID: %s
`, amount, strings.Join(r.Names, ", "), card, r.PaymentID)
	if r.ReceiptURL != "" {
		textBody += "Receipt: " + r.ReceiptURL + "\n"
	}

	return s.sendEmail(ctx, toEmail, subject, fmt.Sprintf(emailLayout, "Registration confirmed", content), textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	log.Debug().
		Str("from", fromAddress).
		Str("to", toEmail).
		Str("subject", subject).
		Int("html_bytes", len(htmlBody)).
		Msg("Calling SES SendEmail")

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if result.MessageId != nil {
		log.Debug().Str("message_id", *result.MessageId).Msg("SES SendEmail succeeded")
	}
	log.Info().Str("to", toEmail).Str("subject", subject).Msg("Email sent successfully")
	return nil
}
