// Package email — Resend üzerinden transactional e-posta gönderimi.
//
// Servis katmanı EmailSender arayüzünü kullanır; testlerde no-op bir
// implementasyon geçilir. API key boşsa gönderim log'lanır ama hata dönmez,
// geliştirme ortamında Resend hesabı gerekmez.
package email

import (
	"fmt"
	"log"
	"time"

	"github.com/resend/resend-go/v3"
)

// EmailSender, servislerin ihtiyaç duyduğu gönderim operasyonları.
type EmailSender interface {
	SendPasswordReset(to, displayName, resetURL string) error
	SendBookingRequested(to, ownerName, renterName, gearTitle string, start, end time.Time) error
	SendBookingConfirmed(to, renterName, gearTitle string, start, end time.Time) error
	SendNewMatch(to, displayName, matchedName string) error
	SendMissedCall(to, displayName, callerName, callType string) error
}

type resendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender, Resend client'ı ile bir EmailSender oluşturur.
// apiKey boş olabilir; bu durumda gönderimler sadece log'lanır.
func NewResendSender(apiKey, from string) EmailSender {
	if apiKey == "" {
		log.Println("[email] RESEND_API_KEY not set, emails will be logged only")
		return &logSender{}
	}
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *resendSender) send(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	_, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

func (s *resendSender) SendPasswordReset(to, displayName, resetURL string) error {
	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>Reset your NomadNotes password</h2>
			<p>Hi %s,</p>
			<p>We received a request to reset your password. Click the link below to choose a new one. The link expires in 1 hour.</p>
			<p><a href="%s" style="display: inline-block; padding: 10px 20px; background: #0ea5e9; color: #fff; border-radius: 6px; text-decoration: none;">Reset password</a></p>
			<p>If you didn't request this, you can safely ignore this email.</p>
		</div>`, displayName, resetURL)
	return s.send(to, "Reset your NomadNotes password", html)
}

func (s *resendSender) SendBookingRequested(to, ownerName, renterName, gearTitle string, start, end time.Time) error {
	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>New booking request</h2>
			<p>Hi %s,</p>
			<p><strong>%s</strong> wants to rent your <strong>%s</strong> from %s to %s.</p>
			<p>Open NomadNotes to confirm or decline the request.</p>
		</div>`, ownerName, renterName, gearTitle,
		start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	return s.send(to, fmt.Sprintf("Booking request for %s", gearTitle), html)
}

func (s *resendSender) SendBookingConfirmed(to, renterName, gearTitle string, start, end time.Time) error {
	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>Booking confirmed</h2>
			<p>Hi %s,</p>
			<p>Your booking for <strong>%s</strong> (%s – %s) has been confirmed by the owner.</p>
			<p>You can message the owner on NomadNotes to arrange the handoff.</p>
		</div>`, renterName, gearTitle,
		start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	return s.send(to, fmt.Sprintf("Your booking for %s is confirmed", gearTitle), html)
}

func (s *resendSender) SendNewMatch(to, displayName, matchedName string) error {
	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>You have a new travel match!</h2>
			<p>Hi %s,</p>
			<p>You and <strong>%s</strong> liked each other's trips. Say hi and start planning together.</p>
		</div>`, displayName, matchedName)
	return s.send(to, fmt.Sprintf("You matched with %s", matchedName), html)
}

func (s *resendSender) SendMissedCall(to, displayName, callerName, callType string) error {
	html := fmt.Sprintf(`
		<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
			<h2>Missed %s call</h2>
			<p>Hi %s,</p>
			<p><strong>%s</strong> tried to call you on NomadNotes while you were away.</p>
		</div>`, callType, displayName, callerName)
	return s.send(to, fmt.Sprintf("Missed call from %s", callerName), html)
}

// logSender, API key yokken kullanılan no-op implementasyon.
type logSender struct{}

func (s *logSender) SendPasswordReset(to, _, resetURL string) error {
	log.Printf("[email] (dev) password reset for %s: %s", to, resetURL)
	return nil
}

func (s *logSender) SendBookingRequested(to, _, renterName, gearTitle string, _, _ time.Time) error {
	log.Printf("[email] (dev) booking request to %s: %s wants %s", to, renterName, gearTitle)
	return nil
}

func (s *logSender) SendBookingConfirmed(to, _, gearTitle string, _, _ time.Time) error {
	log.Printf("[email] (dev) booking confirmed to %s for %s", to, gearTitle)
	return nil
}

func (s *logSender) SendNewMatch(to, _, matchedName string) error {
	log.Printf("[email] (dev) new match to %s with %s", to, matchedName)
	return nil
}

func (s *logSender) SendMissedCall(to, _, callerName, callType string) error {
	log.Printf("[email] (dev) missed %s call to %s from %s", callType, to, callerName)
	return nil
}
