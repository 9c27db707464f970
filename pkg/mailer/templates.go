package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/go-querystring/query"
)

type signInParams struct {
	Email string `url:"email"`
	Code  string `url:"code"`
}

// SignInURL builds the link that pre-fills the verification form.
func SignInURL(baseURL, email, code string) (string, error) {
	v, err := query.Values(signInParams{Email: email, Code: code})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/login?" + v.Encode(), nil
}

func VerificationCode(toEmail, code, signInURL string, ttlMinutes int) Message {
	text := fmt.Sprintf("Your sign-in code is: %s\n\nIt expires in %d minutes.\n\nOr open this link: %s", code, ttlMinutes, signInURL)
	body := fmt.Sprintf(`
		<h2>Your sign-in code</h2>
		<p>Your verification code is: <strong style="font-size: 24px;">%s</strong></p>
		<p>Or click the link below to sign in directly:</p>
		<p><a href="%s">Sign in</a></p>
		<p>This code will expire in %d minutes.</p>
	`, html.EscapeString(code), html.EscapeString(signInURL), ttlMinutes)

	return Message{
		ToEmail: toEmail,
		Subject: "Your sign-in code",
		Text:    text,
		HTML:    body,
	}
}

// RegistrationDetails is what attendee e-mails say about the event.
type RegistrationDetails struct {
	FirstName  string
	LastName   string
	Email      string
	EventLabel string
	StartDate  string
	EventURL   string
}

func RegistrationConfirmed(d RegistrationDetails) Message {
	name := displayName(d.FirstName, d.LastName)
	text := fmt.Sprintf("Hi %s,\n\nYou are registered for %s on %s.\n\n%s", name, d.EventLabel, d.StartDate, d.EventURL)
	body := fmt.Sprintf(`
		<h2>You're registered!</h2>
		<p>Hi %s,</p>
		<p>Your place at <strong>%s</strong> on %s is confirmed.</p>
		<p><a href="%s">View event</a></p>
	`, html.EscapeString(name), html.EscapeString(d.EventLabel), html.EscapeString(d.StartDate), html.EscapeString(d.EventURL))

	return Message{
		ToEmail: d.Email,
		ToName:  name,
		Subject: "Registration confirmed: " + d.EventLabel,
		Text:    text,
		HTML:    body,
	}
}

func RegistrationCancelled(d RegistrationDetails) Message {
	name := displayName(d.FirstName, d.LastName)
	text := fmt.Sprintf("Hi %s,\n\nYour registration for %s on %s has been cancelled.", name, d.EventLabel, d.StartDate)
	body := fmt.Sprintf(`
		<h2>Registration cancelled</h2>
		<p>Hi %s,</p>
		<p>Your registration for <strong>%s</strong> on %s has been cancelled.</p>
	`, html.EscapeString(name), html.EscapeString(d.EventLabel), html.EscapeString(d.StartDate))

	return Message{
		ToEmail: d.Email,
		ToName:  name,
		Subject: "Registration cancelled: " + d.EventLabel,
		Text:    text,
		HTML:    body,
	}
}
