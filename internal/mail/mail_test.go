package mail

import (
	"context"
	"strings"
	"testing"
)

func TestNewSMTPDispatcherValidatesAddress(t *testing.T) {
	if _, err := NewSMTPDispatcher("", "no-reply@squadhub.org", "", ""); err == nil {
		t.Fatal("expected error for empty address")
	}
	if _, err := NewSMTPDispatcher("not-a-hostport", "no-reply@squadhub.org", "", ""); err == nil {
		t.Fatal("expected error for address without port")
	}
	if _, err := NewSMTPDispatcher("smtp.example.com:587", "no-reply@squadhub.org", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("no-reply@squadhub.org", "b@x.com", "Verify Your Email", "hello"))

	for _, want := range []string{
		"From: no-reply@squadhub.org\r\n",
		"To: b@x.com\r\n",
		"Subject: Verify Your Email\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\nhello\r\n") {
		t.Fatalf("body not separated by blank line:\n%s", msg)
	}
}

func TestSendHonorsCanceledContext(t *testing.T) {
	d, err := NewSMTPDispatcher("127.0.0.1:2525", "no-reply@squadhub.org", "", "")
	if err != nil {
		t.Fatalf("NewSMTPDispatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Send(ctx, "b@x.com", "s", "b"); err == nil {
		t.Fatal("expected context error")
	}
}
