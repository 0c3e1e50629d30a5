package loki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPushEvent_EmptyBaseURL(t *testing.T) {
	err := PushEvent(context.Background(), "", time.Now(), "line", nil)
	if err == nil {
		t.Fatal("PushEvent with empty base URL should return error")
	}
}

func TestPushEventJSON_SendsLabelsAndLine(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q, want /loki/api/v1/push", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal push body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw := []byte(`{"eventType":"login","actorId":"actor-1","source":"session-authority","createdAt":"2026-01-02T15:04:05Z"}`)
	if err := PushEventJSON(context.Background(), srv.URL, raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}

	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	st := got.Streams[0]
	if st.Stream["job"] != "signage" {
		t.Errorf("job label = %q, want signage", st.Stream["job"])
	}
	if st.Stream["event_type"] != "login" {
		t.Errorf("event_type label = %q, want login", st.Stream["event_type"])
	}
	if st.Stream["actor_id"] != "actor-1" {
		t.Errorf("actor_id label = %q, want actor-1", st.Stream["actor_id"])
	}
	if len(st.Values) != 1 || st.Values[0][1] != string(raw) {
		t.Error("log line should be the raw event JSON")
	}
}

func TestPushEvent_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := PushEvent(context.Background(), srv.URL, time.Now(), "line", nil); err == nil {
		t.Fatal("PushEvent should surface non-2xx responses")
	}
}

func TestPushEvent_SanitizesLabels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var got PushRequest
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal: %v", err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if v := got.Streams[0].Stream["source"]; v != "a_b_c" {
			t.Errorf("sanitized label = %q, want a_b_c", v)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	labels := map[string]string{"source": "a b{c"}
	if err := PushEvent(context.Background(), srv.URL, time.Now(), "line", labels); err != nil {
		t.Fatalf("PushEvent: %v", err)
	}
}
