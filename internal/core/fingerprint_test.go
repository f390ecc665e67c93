package core

import (
	"encoding/json"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	v := map[string]string{"runtimeName": "rt-1", "status": "Running"}
	h1 := Fingerprint(v)
	h2 := Fingerprint(v)
	if h1 != h2 {
		t.Fatalf("same input produced different hashes: %s vs %s", h1, h2)
	}
}

func TestFingerprint_KeyOrderIrrelevant(t *testing.T) {
	body1 := json.RawMessage(`{"status":"Running","labels":{"b":"2","a":"1"}}`)
	body2 := json.RawMessage(`{"labels":{"a":"1","b":"2"},"status":"Running"}`)
	h1 := Fingerprint(body1)
	h2 := Fingerprint(body2)
	if h1 != h2 {
		t.Fatalf("different key order produced different hashes: %s vs %s", h1, h2)
	}
}

func TestFingerprint_ArrayOrderMatters(t *testing.T) {
	h1 := Fingerprint([]string{"a", "b"})
	h2 := Fingerprint([]string{"b", "a"})
	if h1 == h2 {
		t.Fatal("reordered list produced same hash")
	}
}

func TestFingerprint_DifferentStatus(t *testing.T) {
	rt := Runtime{RuntimeName: "rt-1", Status: StatusRunning}
	h1 := Fingerprint(rt)
	rt.Status = StatusStopping
	h2 := Fingerprint(rt)
	if h1 == h2 {
		t.Fatal("different statuses produced same hash")
	}
}
