// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

type sampleRecord struct {
	Name    string   `cbor:"name"`
	Members []string `cbor:"members,omitempty"`
	Extra   string   `cbor:"extra,omitempty"`
}

type olderRecord struct {
	Name string `cbor:"name"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	first, err := Marshal(map[string]any{"b": 2, "a": 1, "c": []string{"x"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(map[string]any{"c": []string{"x"}, "a": 1, "b": 2})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding differs between runs: %x vs %x", first, again)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(sampleRecord{Name: "alices_room_1", Members: []string{"a"}, Extra: "new"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded olderRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into older type: %v", err)
	}
	if decoded.Name != "alices_room_1" {
		t.Errorf("Name = %q, want alices_room_1", decoded.Name)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(sampleRecord{Name: "r"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	asMap, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	if asMap["name"] != "r" {
		t.Errorf("name = %v, want r", asMap["name"])
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(sampleRecord{Name: "r"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(text, `"name"`) {
		t.Errorf("Diagnose output %q missing field name", text)
	}
}
