package alchemy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockerp/alchemy-bridge/internal/errs"
)

func TestSignIn_TokenListShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sign-in" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tokens":[{"tenant":"acme","accessToken":"t1"},{"tenant":"beta","accessToken":"t2"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	tokens, err := c.SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(tokens) != 2 || tokens[1].Tenant != "beta" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestSignIn_SinglePairShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tenant":"acme","accessToken":"only"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	tokens, err := c.SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(tokens) != 1 || tokens[0].AccessToken != "only" {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestSignIn_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.SignIn(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateMaterial_ReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", got)
		}
		w.Write([]byte(`{"materialId":555}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	id, err := c.CreateMaterial(context.Background(), "tok", map[string]any{})
	if err != nil {
		t.Fatalf("CreateMaterial: %v", err)
	}
	if id != 555 {
		t.Fatalf("expected id 555, got %d", id)
	}
}

func TestCreateMaterial_NoIDIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.CreateMaterial(context.Background(), "tok", map[string]any{})
	var apiErr *errs.ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ExternalAPIError, got %v", err)
	}
}

func TestCreateMaterial_UpstreamMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"materialType 982 does not exist"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	_, err := c.CreateMaterial(context.Background(), "tok", map[string]any{})
	var apiErr *errs.ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ExternalAPIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "materialType 982 does not exist" {
		t.Fatalf("upstream detail lost: %+v", apiErr)
	}
}

func TestReadRecord_FieldTableShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "555" {
			t.Errorf("expected id=555, got %q", got)
		}
		w.Write([]byte(`{"fields":[{"identifier":"Code","rows":[{"row":0,"values":[{"value":"ALC-7"}]}]}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	rec, err := c.ReadRecord(context.Background(), "tok", 555)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	code, ok := rec.Field("Code")
	if !ok || code != "ALC-7" {
		t.Fatalf("expected Code ALC-7, got %q ok=%v", code, ok)
	}
}

func TestReadRecord_TransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil)
	_, err := c.ReadRecord(context.Background(), "tok", 1)
	var apiErr *errs.ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ExternalAPIError for transport failure, got %v", err)
	}
	if apiErr.StatusCode != 0 {
		t.Fatalf("transport errors carry no status, got %d", apiErr.StatusCode)
	}
}
