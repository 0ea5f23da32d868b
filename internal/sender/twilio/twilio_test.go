package twilio

import (
	"context"
	"testing"

	"github.com/rgangen24/leadgen/internal/sender"
)

func TestSend_MissingCredentialsReturnsSimulatedSuccess(t *testing.T) {
	s := New("", "")
	result, err := s.Send(context.Background(), &sender.WhatsAppMessage{To: "+15551234567", From: "+15557654321", Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.MessageID != "simulated" {
		t.Errorf("result = %+v, want simulated success", result)
	}
}

func TestSend_MissingFromReturnsSimulatedSuccess(t *testing.T) {
	s := New("AC123", "token")
	result, err := s.Send(context.Background(), &sender.WhatsAppMessage{To: "+15551234567", Body: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.MessageID != "simulated" {
		t.Errorf("result = %+v, want simulated success", result)
	}
}

func TestWhatsappPrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"+15551234567", "whatsapp:+15551234567"},
		{"whatsapp:+15551234567", "whatsapp:+15551234567"},
	}
	for _, tt := range tests {
		if got := whatsappPrefix(tt.in); got != tt.want {
			t.Errorf("whatsappPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
