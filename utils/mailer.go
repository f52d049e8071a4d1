// utils/mailer.go
package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// SendEmail delivers one HTML email through the configured SMTP relay
func SendEmail(to, subject, htmlBody string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	senderEmail := fromEmail
	if senderEmail == "" {
		senderEmail = smtpUser
	}

	if smtpHost == "" {
		smtpHost = "mail.smtp2go.com"
	}
	if smtpUser == "" || smtpPass == "" {
		return fmt.Errorf("SMTP configuration is incomplete: check SMTP_USER and SMTP_PASS")
	}

	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		if portNum, err := strconv.Atoi(portStr); err == nil && portNum > 0 {
			smtpPort = portNum
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("LinkShorti <%s>", senderEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)

	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}

	return nil
}

// SendVerificationEmail sends the signup verification code
func SendVerificationEmail(email, name, otpCode string, isResend bool) error {
	subject := "Verify Your Email - LinkShorti"
	message := "Welcome to LinkShorti! To complete your account setup, please verify your email address using the verification code below."
	if isResend {
		subject = "New Verification Code - LinkShorti"
		message = "Here's your new verification code to complete your account setup."
	}

	return SendEmail(email, subject, otpEmailBody(name, message, "Verification Code", otpCode, email))
}

// SendPasswordResetEmail sends the forgot-password reset code
func SendPasswordResetEmail(email, name, otpCode string) error {
	message := "We received a request to reset your password. Use the code below to reset your password. If you didn't request this, you can safely ignore this email."
	return SendEmail(email, "Reset Your Password - LinkShorti", otpEmailBody(name, message, "Password Reset Code", otpCode, email))
}

// SendPasswordChangeEmail sends the in-session password change code
func SendPasswordChangeEmail(email, name, otpCode string) error {
	message := "A password change was requested for your account. Use the code below to confirm it. If this wasn't you, please secure your account immediately."
	return SendEmail(email, "Confirm Password Change - LinkShorti", otpEmailBody(name, message, "Confirmation Code", otpCode, email))
}

// SendContactNotification forwards a contact-form submission to the
// support mailbox.
func SendContactNotification(fullName, email, message string) error {
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		supportEmail = "support@linkshorti.com"
	}

	body := fmt.Sprintf(`
		<div style="max-width:600px;margin:20px auto;font-family:Arial,sans-serif;">
			<h2 style="color:#333;">New contact form submission</h2>
			<p><strong>From:</strong> %s &lt;%s&gt;</p>
			<p style="white-space:pre-wrap;border-left:3px solid #007bff;padding-left:15px;color:#555;">%s</p>
		</div>`,
		SanitizeInput(fullName), SanitizeInput(email), SanitizeInput(message))

	return SendEmail(supportEmail, fmt.Sprintf("Contact form: %s", SanitizeInput(fullName)), body)
}

// otpEmailBody renders the shared code-in-a-box email layout
func otpEmailBody(name, message, codeLabel, otpCode, recipient string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f5f5f5;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Helvetica,Arial,sans-serif;">
  <div style="max-width:600px;margin:20px auto;background:#ffffff;border-radius:8px;overflow:hidden;">
    <div style="padding:30px 20px;text-align:center;border-bottom:1px solid #e5e5e5;">
      <h1 style="color:#333333;font-size:24px;margin:0;">LinkShorti</h1>
    </div>
    <div style="padding:30px 20px;">
      <h2 style="color:#333333;font-size:18px;margin:0 0 15px 0;">Hi %s,</h2>
      <p style="color:#666666;font-size:14px;line-height:1.6;margin:0 0 25px 0;">%s</p>
      <div style="background-color:#f8f9fa;border:1px solid #e9ecef;border-radius:6px;padding:20px;text-align:center;margin:25px 0;">
        <p style="color:#6c757d;font-size:12px;text-transform:uppercase;letter-spacing:1px;margin:0 0 10px 0;">%s</p>
        <div style="font-family:'Courier New',monospace;font-size:24px;font-weight:bold;color:#333333;letter-spacing:4px;">%s</div>
      </div>
      <p style="color:#666666;font-size:13px;line-height:1.5;margin:25px 0;">
        This code will expire in <strong>10 minutes</strong>.
      </p>
    </div>
    <div style="background-color:#f8f9fa;padding:20px;text-align:center;border-top:1px solid #e5e5e5;">
      <p style="color:#adb5bd;font-size:11px;margin:0;line-height:1.4;">
        &copy; %d LinkShorti. All rights reserved.<br>This email was sent to %s
      </p>
    </div>
  </div>
</body>
</html>`, SanitizeInput(name), message, codeLabel, otpCode, time.Now().Year(), recipient)
}
