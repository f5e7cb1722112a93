// Copyright 2024-2026 Aiku AI

package discord

import "testing"

func TestParseSnowflake(t *testing.T) {
	t.Parallel()
	id, err := ParseSnowflake("309072999287947264")
	if err != nil {
		t.Fatalf("ParseSnowflake: %v", err)
	}
	if id != Snowflake(309072999287947264) {
		t.Errorf("ParseSnowflake: got %d, want 309072999287947264", id)
	}
}

func TestParseSnowflakeInvalid(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"", "abc", "12.5", "<@123>"} {
		if _, err := ParseSnowflake(input); err == nil {
			t.Errorf("ParseSnowflake(%q): expected error", input)
		}
	}
}

func TestSnowflakeRoundTrip(t *testing.T) {
	t.Parallel()
	original := "123456789012345678"
	id, err := ParseSnowflake(original)
	if err != nil {
		t.Fatalf("ParseSnowflake: %v", err)
	}
	if got := id.String(); got != original {
		t.Errorf("Snowflake round trip: got %q, want %q", got, original)
	}
}

func TestUserDisplayName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		user User
		want string
	}{
		{"nickname wins", User{Username: "steve", Nickname: "Builder"}, "Builder"},
		{"username fallback", User{Username: "steve"}, "steve"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName: got %q, want %q", got, tt.want)
			}
		})
	}
}
