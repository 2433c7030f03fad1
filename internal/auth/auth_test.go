package auth

import (
	"net/http/httptest"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	t1, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(t1) != 2*TokenSize {
		t.Fatalf("expected %d hex chars, got %d", 2*TokenSize, len(t1))
	}

	t2, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if t1 == t2 {
		t.Fatal("two generated tokens should not be equal")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		want, got string
		ok        bool
	}{
		{"secret", "secret", true},
		{"secret", "Secret", false},
		{"secret", "secret-longer", false},
		{"secret", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := Equal(tt.want, tt.got); got != tt.ok {
			t.Errorf("Equal(%q, %q) = %v, want %v", tt.want, tt.got, got, tt.ok)
		}
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/status", nil)
	r.Header.Set("Authorization", "Bearer abc")
	if got := BearerToken(r); got != "abc" {
		t.Fatalf("header token = %q", got)
	}

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	if got := BearerToken(r); got != "xyz" {
		t.Fatalf("query token = %q", got)
	}

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	r.Header.Set("Authorization", "Basic Zm9v")
	if got := BearerToken(r); got != "xyz" {
		t.Fatalf("non-bearer header should fall back to query, got %q", got)
	}

	if got := BearerToken(httptest.NewRequest("GET", "/", nil)); got != "" {
		t.Fatalf("no token = %q", got)
	}
}
