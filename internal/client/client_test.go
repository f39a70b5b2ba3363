package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kindredhq/hearth/internal/auth"
	"github.com/kindredhq/hearth/internal/household"
	"github.com/kindredhq/hearth/internal/server"
	"github.com/kindredhq/hearth/internal/wire"
)

const testJoinCode = "kitchen-table-42"

func mustServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:client_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(household.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := household.NewService(household.ServiceConfig{
		Database:   db,
		IDProvider: household.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	verifier, err := auth.NewJoinCodeVerifier(testJoinCode)
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		JoinVerifier: verifier,
		TokenManager: auth.NewTokenIssuer(auth.TokenIssuerConfig{
			SigningSecret: []byte("test-secret"),
			Issuer:        "hearthd",
			Audience:      "hearth-device",
		}),
		HouseholdService: service,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	testServer := httptest.NewServer(handler)
	t.Cleanup(testServer.Close)
	return testServer
}

func mustClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	built, err := New(Config{BaseURL: baseURL})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return built
}

func TestAuthenticateInstallsToken(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)

	expiresIn, err := device.Authenticate(context.Background(), "acct-1", "tablet-1", testJoinCode)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if expiresIn <= 0 {
		t.Fatalf("expected positive token lifetime, got %d", expiresIn)
	}
	if device.Token() == "" {
		t.Fatalf("expected token installed on the client")
	}
}

func TestAuthenticateWrongJoinCode(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)

	if _, err := device.Authenticate(context.Background(), "acct-1", "tablet-1", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPushRequiresAuthentication(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)

	if _, err := device.Push(context.Background(), wire.EntityTypeCountdown, nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)
	if _, err := device.Authenticate(context.Background(), "acct-1", "tablet-1", testJoinCode); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"id": "cd-1", "account_id": "acct-1", "type": "countdown", "date": "2025-09-01",
	})
	results, err := device.Push(context.Background(), wire.EntityTypeCountdown, []PushOperation{{
		RecordID:          "cd-1",
		Operation:         "upsert",
		ClientTimeSeconds: 1000,
		CreatedAtSeconds:  1000,
		UpdatedAtSeconds:  1000,
		Payload:           payload,
	}})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(results) != 1 || !results[0].Accepted {
		t.Fatalf("expected accepted push, got %+v", results)
	}

	records, err := device.Pull(context.Background(), wire.EntityTypeCountdown)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(records) != 1 || records[0].RecordID != "cd-1" {
		t.Fatalf("expected pushed record back, got %+v", records)
	}

	var decoded map[string]any
	if err := json.Unmarshal(records[0].Payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["date"] != "2025-09-01" {
		t.Fatalf("payload changed in transit: %+v", decoded)
	}
}

func TestStaleTokenMapsToUnauthorized(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)
	device.SetToken("not-a-real-token")

	if _, err := device.Pull(context.Background(), wire.EntityTypeProfile); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCancelledRequestReturnsContextError(t *testing.T) {
	testServer := mustServer(t)
	device := mustClient(t, testServer.URL)
	if _, err := device.Authenticate(context.Background(), "acct-1", "tablet-1", testJoinCode); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := device.Pull(ctx, wire.EntityTypeProfile); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
