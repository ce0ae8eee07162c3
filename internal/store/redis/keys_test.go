package redis

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"session", SessionKey("abc"), "marks:session:abc"},
		{"verifier", VerifierKey("abc"), "marks:pkce:abc"},
		{"channel", AuthChannel("abc"), "marks:auth:abc"},
		{"pattern", AuthChannelPattern(), "marks:auth:*"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s key = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestExtractSID(t *testing.T) {
	tests := []struct {
		channel string
		want    string
		wantErr bool
	}{
		{"marks:auth:abc", "abc", false},
		{"marks:auth:", "", true},
		{"marks:session:abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			got, err := ExtractSID(tt.channel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractSID(%q) error = %v, wantErr %v", tt.channel, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractSID(%q) = %q, want %q", tt.channel, got, tt.want)
			}
		})
	}
}
