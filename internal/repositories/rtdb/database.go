package rtdb

import (
	"context"

	"firebase.google.com/go/v4/db"
)

// Node is the subset of *db.Ref the repositories use.
type Node interface {
	Get(ctx context.Context, v interface{}) error
	Set(ctx context.Context, v interface{}) error
	Update(ctx context.Context, v map[string]interface{}) error
	Delete(ctx context.Context) error
}

// Database resolves slash-separated paths to nodes.
type Database interface {
	Ref(path string) Node
}

// FirebaseDatabase adapts the Admin SDK client to Database.
type FirebaseDatabase struct {
	client *db.Client
}

// NewFirebaseDatabase wraps a Realtime Database client.
func NewFirebaseDatabase(client *db.Client) *FirebaseDatabase {
	return &FirebaseDatabase{client: client}
}

// Ref returns the reference at path.
func (d *FirebaseDatabase) Ref(path string) Node {
	return d.client.NewRef(path)
}

// Ping reads the shallow root, used by readiness probes.
func Ping(ctx context.Context, database Database, path string) error {
	var probe interface{}
	return database.Ref(path).Get(ctx, &probe)
}
