package firebaseapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/jwebchajari/Savia/internal/platform/config"
)

// ErrDatabaseURLRequired is returned when the Realtime Database client is requested without a URL.
var ErrDatabaseURLRequired = errors.New("firebaseapp: database url is required")

// New initialises the Firebase Admin app shared by auth and the Realtime Database client.
// Inline JSON credentials win over a credentials file; with neither, ADC is used.
func New(ctx context.Context, cfg config.FirebaseConfig, extra ...option.ClientOption) (*firebase.App, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firebaseapp: project id is required")
	}

	opts := clientOptions(cfg)
	opts = append(opts, extra...)

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   projectID,
		DatabaseURL: strings.TrimSpace(cfg.DatabaseURL),
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebaseapp: initialise app: %w", err)
	}
	return app, nil
}

// Database returns the Realtime Database client for the configured URL.
func Database(ctx context.Context, app *firebase.App, cfg config.FirebaseConfig) (*db.Client, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, ErrDatabaseURLRequired
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebaseapp: realtime database client: %w", err)
	}
	return client, nil
}

func clientOptions(cfg config.FirebaseConfig) []option.ClientOption {
	if raw := strings.TrimSpace(cfg.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}
