package mailer

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("alice@uwaterloo.ca", "bot@example.com", "123456"))
	headerEnd := strings.Index(msg, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("message has no blank line between headers and body")
	}
	headers, body := msg[:headerEnd], msg[headerEnd+4:]
	for _, want := range []string{
		"From: bot@example.com",
		"To: alice@uwaterloo.ca",
		"Subject: " + subject,
		"Content-Type: text/plain",
	} {
		if !strings.Contains(headers, want) {
			t.Errorf("headers missing %q:\n%s", want, headers)
		}
	}
	if !strings.Contains(body, "123456") {
		t.Errorf("body does not carry the code: %q", body)
	}
}

func TestPrintMailerNeverFails(t *testing.T) {
	if err := (PrintMailer{}).Send("alice@uwaterloo.ca", "123456", "alice#1234"); err != nil {
		t.Fatalf("PrintMailer.Send: %v", err)
	}
}
