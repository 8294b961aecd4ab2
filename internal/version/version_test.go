package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpdateAvailable(t *testing.T) {
	cases := []struct {
		current, latest string
		want            bool
	}{
		{"v1.0.0", "v1.1.0", true},
		{"v1.1.0", "v1.1.0", false},
		{"v1.2.0", "v1.1.0", false},
		{"1.0.0", "1.0.1", true}, // missing v prefix is tolerated
		{"v0.0.0-dev", "v0.1.0", true},
		{"garbage", "v1.0.0", false},
		{"v1.0.0", "", false},
	}
	for _, c := range cases {
		if got := UpdateAvailable(c.current, c.latest); got != c.want {
			t.Errorf("UpdateAvailable(%q, %q) = %v, want %v", c.current, c.latest, got, c.want)
		}
	}
}

func TestLatestParsesRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v1.2.3","draft":false,"prerelease":false}`))
	}))
	defer srv.Close()

	orig := releasesURL
	releasesURL = srv.URL
	defer func() { releasesURL = orig }()

	got, err := Latest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "v1.2.3" {
		t.Fatalf("Latest() = %q, want v1.2.3", got)
	}
}

func TestLatestRejectsPrerelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name":"v2.0.0-rc1","prerelease":true}`))
	}))
	defer srv.Close()

	orig := releasesURL
	releasesURL = srv.URL
	defer func() { releasesURL = orig }()

	if _, err := Latest(context.Background()); err == nil {
		t.Fatal("expected error for prerelease-only response")
	}
}
