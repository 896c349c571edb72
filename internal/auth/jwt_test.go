package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("station-1", RoleVigil, "presence-engine", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty tokens issued")
	}

	claims, err := Parse(pair.AccessToken, "test-key", "presence-engine")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "station-1" {
		t.Errorf("subject = %q, want station-1", claims.Subject)
	}
	if claims.Role != RoleVigil {
		t.Errorf("role = %q, want vigil", claims.Role)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("station-1", RoleVigil, "presence-engine", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(pair.AccessToken, "other-key", "presence-engine"); err == nil {
		t.Error("token signed with different key accepted")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("station-1", RoleAdmin, "someone-else", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(pair.AccessToken, "test-key", "presence-engine"); err == nil {
		t.Error("token from different issuer accepted")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("station-1", RoleVigil, "presence-engine", "test-key", -time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(pair.AccessToken, "test-key", "presence-engine"); err == nil {
		t.Error("expired token accepted")
	}
}
