package security

import (
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	g := NewSSRFGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"httpsの公開URL", "https://api.example.com/v1/suggest", false},
		{"httpの公開URL", "http://api.example.com/suggest", false},
		{"空URL", "", true},
		{"スキームなし", "api.example.com/suggest", true},
		{"ftpスキーム", "ftp://example.com/file", true},
		{"fileスキーム", "file:///etc/passwd", true},
		{"javascriptスキーム", "javascript:alert(1)", true},
		{"localhost", "https://localhost/admin", true},
		{"localhost大文字", "https://LOCALHOST/admin", true},
		{"ループバックIP", "https://127.0.0.1/admin", true},
		{"プライベートIP 10系", "https://10.0.0.5/internal", true},
		{"プライベートIP 172系", "https://172.16.0.1/internal", true},
		{"プライベートIP 192系", "https://192.168.1.1/router", true},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data/", true},
		{"IPv6ループバック", "https://[::1]/admin", true},
		{"公開IP", "https://93.184.216.34/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNewSafeClient(t *testing.T) {
	g := NewSSRFGuard()

	client := g.NewSafeClient(5 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want %v", client.Timeout, 5*time.Second)
	}
}
