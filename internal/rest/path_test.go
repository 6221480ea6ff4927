package rest

import "testing"

func TestNormalizePath_StripsVersionedPrefix(t *testing.T) {
	t.Parallel()

	prefix, remainder := NormalizePath("/api/v10/channels/1/messages")
	if prefix != "/api/v10" {
		t.Fatalf("expected /api/v10 prefix got %q", prefix)
	}
	if remainder != "/channels/1/messages" {
		t.Fatalf("expected /channels/1/messages remainder got %q", remainder)
	}
}

func TestNormalizePath_NonNumericVersion(t *testing.T) {
	t.Parallel()

	prefix, remainder := NormalizePath("/api/vX/foo")
	if prefix != "/api" {
		t.Fatalf("expected /api prefix got %q", prefix)
	}
	if remainder != "/vX/foo" {
		t.Fatalf("expected /vX/foo remainder got %q", remainder)
	}
}

func TestNormalizePath_MissingAPIPrefix(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/channels/1/messages", "/users/@me", "/v10/guilds/2", ""} {
		prefix, remainder := NormalizePath(path)
		if prefix != "/api" {
			t.Fatalf("expected /api prefix for %q got %q", path, prefix)
		}
		if remainder != path {
			t.Fatalf("expected unchanged remainder for %q got %q", path, remainder)
		}
	}
}

func TestNormalizePath_UnversionedAPIPrefix(t *testing.T) {
	t.Parallel()

	prefix, remainder := NormalizePath("/api/users/@me")
	if prefix != "/api" {
		t.Fatalf("expected /api prefix got %q", prefix)
	}
	if remainder != "/users/@me" {
		t.Fatalf("expected /users/@me remainder got %q", remainder)
	}
}

func TestNormalizePath_BareVersion(t *testing.T) {
	t.Parallel()

	prefix, remainder := NormalizePath("/api/v6")
	if prefix != "/api/v6" {
		t.Fatalf("expected /api/v6 prefix got %q", prefix)
	}
	if remainder != "" {
		t.Fatalf("expected empty remainder got %q", remainder)
	}
}
