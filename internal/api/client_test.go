package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	cerrors "github.com/voxlane/console-core/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{
		BaseURL: server.URL,
		Tokens:  StaticToken("test-token"),
		Timeout: 5 * time.Second,
		Logger:  zerolog.Nop(),
	})
}

func TestGetProfileSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/me" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u-1","email":"owner@example.com","role":"admin"}`))
	}))

	profile, err := client.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.ID != "u-1" || profile.Email != "owner@example.com" {
		t.Errorf("unexpected profile %+v", profile)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestGetProfileUnauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
	}))

	_, err := client.GetProfile(context.Background())
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if !cerrors.IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	var re *cerrors.ResolveError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResolveError, got %T", err)
	}
	if re.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", re.StatusCode)
	}
}

func TestGetSubscriptionParsesStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/workspaces/ws-1/subscription" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"has_subscription":true,"subscription":{"id":"sub-9","status":"active"}}`))
	}))

	status, err := client.GetSubscription(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("GetSubscription: %v", err)
	}
	if !status.Active() {
		t.Error("expected active subscription")
	}
	if status.Subscription.ID != "sub-9" {
		t.Errorf("subscription ID = %q, want sub-9", status.Subscription.ID)
	}
}

func TestSubscriptionStatusActive(t *testing.T) {
	cases := []struct {
		name   string
		status SubscriptionStatus
		want   bool
	}{
		{"active", SubscriptionStatus{HasSubscription: true, Subscription: &Subscription{Status: "active"}}, true},
		{"trialing", SubscriptionStatus{HasSubscription: true, Subscription: &Subscription{Status: "trialing"}}, false},
		{"case sensitive", SubscriptionStatus{HasSubscription: true, Subscription: &Subscription{Status: "Active"}}, false},
		{"flag without record", SubscriptionStatus{HasSubscription: true}, false},
		{"record without flag", SubscriptionStatus{Subscription: &Subscription{Status: "active"}}, false},
		{"empty", SubscriptionStatus{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Active(); got != tc.want {
				t.Errorf("Active() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListAgentsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	agents, err := client.ListAgents(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("expected no agents, got %d", len(agents))
	}
}

func TestGetUsageStatusParsesFeatures(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"workspace":{"id":"ws-1","name":"Main","role":"admin"},
			"features":{"call_minutes":{"used":76,"limit":100,"unlimited":false}},
			"billing_period":{"start":"2026-08-01","end":"2026-09-01"},
			"subscription":{"id":"sub-9","status":"active","show_alert":false}
		}`))
	}))

	status, err := client.GetUsageStatus(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("GetUsageStatus: %v", err)
	}
	feature, ok := status.Features[FeatureCallMinutes]
	if !ok {
		t.Fatal("expected call_minutes feature")
	}
	if feature.Used != 76 || feature.Limit == nil || *feature.Limit != 100 {
		t.Errorf("unexpected feature %+v", feature)
	}
	if status.BillingPeriod.End != "2026-09-01" {
		t.Errorf("billing period end = %q", status.BillingPeriod.End)
	}
	if !status.Workspace.IsAdmin() {
		t.Error("expected admin role")
	}
}

func TestClientRejectsRedirects(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))

	_, err := client.GetProfile(context.Background())
	if err == nil {
		t.Fatal("expected redirect to fail")
	}
}

func TestClientInvalidBaseURL(t *testing.T) {
	client := New(Config{BaseURL: "", Logger: zerolog.Nop()})
	_, err := client.GetProfile(context.Background())
	if err == nil {
		t.Fatal("expected error for missing base URL")
	}
}
