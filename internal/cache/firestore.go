// Copyright 2025 Certen Protocol
//
// Firestore-backed resolver cache
// For deployments that already run a Firestore project for other
// real-time sync purposes, lets the resolver cache share it instead of
// standing up a separate store. A no-op when disabled, matching the
// teacher client's "Enabled" no-op-client pattern.

package cache

import (
	"context"
	"fmt"
	"log"
	"os"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/gobengo/trustchain/internal/trustchain"
)

const resolvedDIDCollection = "trustchain_resolved_dids"

// Firestore is a trustchain.Cache backed by a Firestore collection.
type Firestore struct {
	client    *gcpfirestore.Client
	projectID string
	enabled   bool
	logger    *log.Logger
}

// FirestoreConfig configures a Firestore-backed cache.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	Enabled         bool
	Logger          *log.Logger
}

// NewFirestore constructs a Firestore cache. When cfg.Enabled is false
// it returns a client whose Get always misses and whose Put is a no-op,
// so callers can wire it unconditionally without a feature-flag branch.
func NewFirestore(ctx context.Context, cfg *FirestoreConfig) (*Firestore, error) {
	if cfg == nil {
		cfg = &FirestoreConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[firestore-cache] ", log.LstdFlags)
	}

	f := &Firestore{projectID: cfg.ProjectID, enabled: cfg.Enabled, logger: cfg.Logger}
	if !cfg.Enabled {
		cfg.Logger.Println("firestore resolver cache disabled, running in no-op mode")
		return f, nil
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore resolver cache: ProjectID is required when enabled")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore resolver cache: init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore resolver cache: init firestore client: %w", err)
	}
	f.client = client
	return f, nil
}

// Close releases the underlying Firestore client, if one was opened.
func (f *Firestore) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Get implements trustchain.Cache.
func (f *Firestore) Get(did string) (*trustchain.ResolvedDID, bool) {
	if !f.enabled {
		return nil, false
	}
	ctx := context.Background()
	doc, err := f.client.Collection(resolvedDIDCollection).Doc(docID(did)).Get(ctx)
	if err != nil || !doc.Exists() {
		return nil, false
	}
	var resolved trustchain.ResolvedDID
	if err := doc.DataTo(&resolved); err != nil {
		f.logger.Printf("decode cached resolution for %s: %v", did, err)
		return nil, false
	}
	return &resolved, true
}

// Put implements trustchain.Cache. Uses Create rather than Set so a DID
// already cached is left untouched, matching the in-memory backend's
// insert-once semantics.
func (f *Firestore) Put(did string, resolved *trustchain.ResolvedDID) {
	if !f.enabled {
		return
	}
	ctx := context.Background()
	_, err := f.client.Collection(resolvedDIDCollection).Doc(docID(did)).Create(ctx, resolved)
	if err != nil {
		f.logger.Printf("cache resolution for %s: %v", did, err)
	}
}

// docID maps a DID (which contains colons, invalid in a Firestore
// document path segment) to a safe document ID.
func docID(did string) string {
	out := make([]byte, 0, len(did))
	for i := 0; i < len(did); i++ {
		if did[i] == ':' || did[i] == '/' {
			out = append(out, '_')
			continue
		}
		out = append(out, did[i])
	}
	return string(out)
}
