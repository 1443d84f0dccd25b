package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const installedClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret",` +
	`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
	`"redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(installedClient), "http://localhost:8085/callback")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" || cfg.RedirectURL != "http://localhost:8085/callback" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if len(cfg.Scopes) != 1 || !strings.Contains(cfg.Scopes[0], "spreadsheets") {
		t.Errorf("scopes = %v", cfg.Scopes)
	}

	if _, err := OAuthConfig([]byte(`{}`), ""); err == nil {
		t.Fatal("expected error for empty client")
	}
}

func TestReadOAuthClient(t *testing.T) {
	file := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(file, []byte(installedClient), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		inline  string
		file    string
		wantErr string
	}{
		{name: "inline wins", inline: `{"inline":true}`, file: file},
		{name: "file", file: file},
		{name: "missing file", file: "/does/not/exist.json", wantErr: "read oauth client file"},
		{name: "nothing", wantErr: "missing oauth client"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ReadOAuthClient(tt.inline, tt.file)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || len(b) == 0 {
				t.Fatalf("unexpected result %q, %v", b, err)
			}
			if tt.inline != "" && string(b) != tt.inline {
				t.Errorf("got %q", b)
			}
		})
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RefreshToken != "refresh" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("got %+v", got)
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadToken(empty); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestNewWithOAuthToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token.json")
	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}

	c, err := New(context.Background(), Options{
		SpreadsheetID:   "sheet",
		OAuthClientJSON: installedClient,
		OAuthTokenFile:  tokenFile,
	}, nil)
	if err != nil || c.svc == nil {
		t.Fatalf("new: %v", err)
	}

	_, err = New(context.Background(), Options{SpreadsheetID: "sheet", OAuthTokenFile: tokenFile}, nil)
	if err == nil || !strings.Contains(err.Error(), "oauth client") {
		t.Fatalf("expected oauth client error, got %v", err)
	}
}
