package bootstrap

import (
	"context"
	"testing"

	"github.com/dalemusser/waffle/config"
	"github.com/whosinapp/whosin/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func devCore() *config.CoreConfig {
	return &config.CoreConfig{Env: "dev"}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		env     string
		cfg     AppConfig
		wantErr bool
	}{
		{
			name: "valid dev config",
			env:  "dev",
			cfg:  AppConfig{MongoURI: "mongodb://localhost:27017", SessionKey: "dev-only-change-me-please-0123456789ABCDEF"},
		},
		{
			name:    "bad mongo uri",
			env:     "dev",
			cfg:     AppConfig{MongoURI: "not-a-uri"},
			wantErr: true,
		},
		{
			name:    "google id without secret",
			env:     "dev",
			cfg:     AppConfig{MongoURI: "mongodb://localhost:27017", GoogleClientID: "id"},
			wantErr: true,
		},
		{
			name:    "default session key in prod",
			env:     "prod",
			cfg:     AppConfig{MongoURI: "mongodb://localhost:27017", SessionKey: "dev-only-change-me-please-0123456789ABCDEF"},
			wantErr: true,
		},
		{
			name: "custom session key in prod",
			env:  "prod",
			cfg:  AppConfig{MongoURI: "mongodb://localhost:27017", SessionKey: "a-real-secret-key-0123456789-0123456789"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(&config.CoreConfig{Env: tc.env}, tc.cfg, testLogger())
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := EnsureSchema(ctx, devCore(), AppConfig{}, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	cur, err := db.Collection("profiles").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	var names []string
	for cur.Next(ctx) {
		var idx struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		names = append(names, idx.Name)
	}
	var haveName, haveEmail bool
	for _, n := range names {
		if n == "idx_display_name_ci" {
			haveName = true
		}
		if n == "idx_email_unique" {
			haveEmail = true
		}
	}
	if !haveName || !haveEmail {
		t.Errorf("profile indexes = %v, want idx_display_name_ci and idx_email_unique", names)
	}
}

func TestStartupBuildsRuntimeAndShutdownStopsIt(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	deps := DBDeps{MongoDatabase: db}
	appCfg := AppConfig{
		CachePath:   "", // in-memory cache only
		SessionKey:  "test-session-key-for-testing-only",
		SessionName: "test-session",
	}

	if err := Startup(ctx, devCore(), appCfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if rt == nil || rt.board == nil || rt.resolver == nil {
		t.Fatal("runtime not built")
	}

	handler, err := BuildHandler(devCore(), appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}
	if handler == nil {
		t.Fatal("nil handler")
	}

	// Shutdown with nil client: only the runtime teardown runs here.
	if err := Shutdown(ctx, devCore(), appCfg, DBDeps{}, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
