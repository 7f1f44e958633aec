package notification

import (
	"fmt"
	"html"
	"time"
)

const signature = "Best regards,\nCompany Registration Team"

const htmlFrame = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">%s<br><p>Best regards,<br>Company Registration Team</p></div>`

// expiresIn renders a lifetime as whole minutes, or seconds below a minute.
func expiresIn(ttl time.Duration) string {
	if ttl < time.Minute {
		return fmt.Sprintf("%d seconds", int(ttl.Seconds()))
	}
	if m := int(ttl.Minutes()); m != 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "1 minute"
}

func verificationEmail(to, code string, ttl time.Duration) EmailMessage {
	expiry := expiresIn(ttl)
	return EmailMessage{
		To:      to,
		Subject: "Verify Your Account - Company Registration",
		Text:    fmt.Sprintf("Your verification code is: %s\n\nThis code will expire in %s.\n\n%s", code, expiry, signature),
		HTML: fmt.Sprintf(htmlFrame, fmt.Sprintf(
			`<h2 style="color: #333;">Account Verification</h2><p>Your verification code is:</p>`+
				`<div style="background-color: #f5f5f5; padding: 20px; text-align: center; margin: 20px 0;">`+
				`<span style="font-size: 32px; font-weight: bold; letter-spacing: 5px; color: #333;">%s</span></div>`+
				`<p style="color: #666;">This code will expire in %s.</p>`,
			html.EscapeString(code), expiry)),
	}
}

func verificationSMS(code string) string {
	return fmt.Sprintf("Your Company Registration verification code is %s", code)
}

func passwordResetEmail(to, link string, ttl time.Duration) EmailMessage {
	expiry := expiresIn(ttl)
	return EmailMessage{
		To:      to,
		Subject: "Password Reset - Company Registration",
		Text:    fmt.Sprintf("Click the following link to reset your password: %s\n\nThis link will expire in %s.\n\n%s", link, expiry, signature),
		HTML: fmt.Sprintf(htmlFrame, fmt.Sprintf(
			`<h2 style="color: #333;">Password Reset</h2>`+
				`<p>You requested to reset your password. Click the button below to proceed:</p>`+
				`<div style="text-align: center; margin: 30px 0;"><a href="%s" style="background-color: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a></div>`+
				`<p style="color: #666;">This link will expire in %s.</p>`+
				`<p style="color: #666;">If you didn't request this, please ignore this email.</p>`,
			html.EscapeString(link), expiry)),
	}
}

func companyRegisteredEmail(to, companyName string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Company Registration Successful - " + companyName,
		Text:    fmt.Sprintf("Congratulations! Your company %q has been registered successfully.\n\n%s", companyName, signature),
		HTML: fmt.Sprintf(htmlFrame, fmt.Sprintf(
			`<h2 style="color: #333;">Company Registration Successful!</h2><p>Congratulations!</p>`+
				`<p>Your company <strong>"%s"</strong> has been registered successfully.</p>`+
				`<p>You can now access your company dashboard and manage your company details.</p>`,
			html.EscapeString(companyName))),
	}
}
