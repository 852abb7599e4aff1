package firebaseapp

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebchajari/Savia/internal/platform/config"
)

func TestNewRequiresProject(t *testing.T) {
	if _, err := New(context.Background(), config.FirebaseConfig{}); err == nil {
		t.Fatalf("expected error without project id")
	}
}

func TestDatabaseRequiresURL(t *testing.T) {
	if _, err := Database(context.Background(), nil, config.FirebaseConfig{ProjectID: "savia"}); !errors.Is(err, ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}
}

func TestClientOptionsPrefersInlineJSON(t *testing.T) {
	if got := clientOptions(config.FirebaseConfig{CredentialsJSON: "{}", CredentialsFile: "/tmp/sa.json"}); len(got) != 1 {
		t.Fatalf("expected single option, got %d", len(got))
	}
	if got := clientOptions(config.FirebaseConfig{}); got != nil {
		t.Fatalf("expected no options for ADC, got %v", got)
	}
}
