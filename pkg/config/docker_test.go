package config

import (
	"testing"
)

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		addr     string
		inDocker bool
		expected string
	}{
		{"127.0.0.1", false, "127.0.0.1"},
		{"localhost", false, "localhost"},
		{"127.0.0.1", true, "0.0.0.0"},
		{"localhost", true, "0.0.0.0"},
		{"10.0.0.5", true, "10.0.0.5"},
		{"0.0.0.0", true, "0.0.0.0"},
	}

	for _, tt := range tests {
		result := resolveBindAddr(tt.addr, tt.inDocker)
		if result != tt.expected {
			t.Errorf("resolveBindAddr(%q, %v) = %q, want %q", tt.addr, tt.inDocker, result, tt.expected)
		}
	}
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{BindAddr: "10.1.2.3", Port: "9000"}
	if got := cfg.ListenAddr(); got != "10.1.2.3:9000" {
		t.Errorf("ListenAddr() = %q, want %q", got, "10.1.2.3:9000")
	}
}

func TestIsRunningInDocker_Cached(t *testing.T) {
	first := IsRunningInDocker()
	second := IsRunningInDocker()
	if first != second {
		t.Errorf("IsRunningInDocker() returned %v then %v", first, second)
	}
}
