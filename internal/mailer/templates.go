package mailer

import (
	"bytes"
	"html/template"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
<h2>Hi {{.Name}},</h2>
{{block "content" .}}{{end}}
<p style="color:#888;font-size:12px;">Coursenese</p>
</body>
</html>`))

var (
	verificationTmpl = mustChild(`{{define "content"}}
<p>Thanks for joining Coursenese. Please confirm your email address to activate your account.</p>
<p><a href="{{.Link}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:6px;text-decoration:none;">Verify email</a></p>
<p>This link expires in {{.Expiry}}. If you did not create an account, ignore this email.</p>
{{end}}`)

	resetTmpl = mustChild(`{{define "content"}}
<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:6px;text-decoration:none;">Reset password</a></p>
<p>This link expires in {{.Expiry}}. If you did not request a reset, you can ignore this email.</p>
{{end}}`)

	passwordChangedTmpl = mustChild(`{{define "content"}}
<p>Your password was changed on {{.When}}.</p>
<p>If this was not you, reset your password immediately and contact support.</p>
{{end}}`)
)

func mustChild(content string) *template.Template {
	return template.Must(template.Must(layout.Clone()).Parse(content))
}

type templateData struct {
	Name   string
	Link   string
	Expiry string
	When   string
}

func render(t *template.Template, to, subject string, data templateData) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

// VerificationEmail renders the email-verification message.
func VerificationEmail(to, name, link, expiry string) (Message, error) {
	return render(verificationTmpl, to, "Verify your Coursenese account", templateData{Name: name, Link: link, Expiry: expiry})
}

// ResetPasswordEmail renders the password-reset link message.
func ResetPasswordEmail(to, name, link, expiry string) (Message, error) {
	return render(resetTmpl, to, "Reset your Coursenese password", templateData{Name: name, Link: link, Expiry: expiry})
}

// PasswordChangedEmail renders the notice sent after a password change or reset.
func PasswordChangedEmail(to, name, when string) (Message, error) {
	return render(passwordChangedTmpl, to, "Your Coursenese password was changed", templateData{Name: name, When: when})
}
