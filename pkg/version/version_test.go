package version_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"driftwatch/pkg/request"
	"driftwatch/pkg/version"
)

func TestVersion_Semver(t *testing.T) {
	if !regexp.MustCompile(`^v\d+\.\d+\.\d+$`).MatchString(version.Version) {
		t.Errorf("Version = %q, want vMAJOR.MINOR.PATCH", version.Version)
	}
}

func TestVersion_InUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.UserAgent()
	}))
	defer srv.Close()

	c := request.New(nil, nil, request.ClientConfig{Retries: 1})
	if _, err := c.Get(t.Context(), srv.URL+"/00.json", ""); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := "driftwatch/" + version.Version + " "
	if !strings.HasPrefix(got, want) {
		t.Errorf("User-Agent = %q, want prefix %q", got, want)
	}
}
