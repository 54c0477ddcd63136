package simenv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
)

func TestClient(t *testing.T) {
	var actions []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "bad method", http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/reset":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"observation": [][]float64{{1, 2}, {3, 4}},
			})
		case "/step":
			var req stepRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			actions = append(actions, req.Action)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"observation": [][]float64{{5, 6}, {7, 8}},
				"reward":      -0.5,
				"done":        req.Action == 2,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := &Client{
		BaseURL:    server.URL,
		Creator:    anyvec64.DefaultCreator{},
		NumActions: 3,
	}
	obs, err := client.Reset()
	if err != nil {
		t.Fatal(err)
	}
	assertData(t, obs.Data().([]float64), []float64{1, 2, 3, 4})

	obs, reward, done, err := client.Step(1)
	if err != nil {
		t.Fatal(err)
	}
	assertData(t, obs.Data().([]float64), []float64{5, 6, 7, 8})
	if reward != -0.5 || done {
		t.Errorf("unexpected reward %v and done %v", reward, done)
	}
	_, _, done, err = client.Step(2)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("expected episode to end")
	}
	if len(actions) != 2 || actions[0] != 1 || actions[1] != 2 {
		t.Errorf("unexpected actions: %v", actions)
	}
}

func TestClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		if r.URL.Path == "/reset" {
			w.Write([]byte(`{"observation": [[1, "x"]]}`))
			return
		}
		http.Error(w, "simulator crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &Client{
		BaseURL:    server.URL,
		Creator:    anyvec64.DefaultCreator{},
		NumActions: 2,
	}
	if _, err := client.Reset(); err == nil {
		t.Error("expected error for malformed observation")
	}
	_, _, _, err := client.Step(0)
	if err == nil || !strings.Contains(err.Error(), "simulator crashed") {
		t.Errorf("expected server error but got %v", err)
	}
}

func TestClientActionRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range action")
		}
	}()
	client := &Client{Creator: anyvec64.DefaultCreator{}, NumActions: 2}
	client.Step(2)
}

func assertData(t *testing.T, actual, expected []float64) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("expected %v but got %v", expected, actual)
	}
	for i, x := range expected {
		if actual[i] != x {
			t.Errorf("expected %v but got %v", expected, actual)
			return
		}
	}
}
