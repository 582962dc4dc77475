// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package econfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	s, err := ReadSettingsFile(path)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s != DefaultSettings() {
		t.Fatalf("missing file should yield defaults, got %+v", s)
	}
	content := `{"batchcalls": false, "animation:duration": 120, "animation:spring:mass": 2}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s, err = ReadSettingsFile(path)
	if err != nil {
		t.Fatalf("ReadSettingsFile: %v", err)
	}
	if s.BatchCalls || s.AnimDuration != 120 || s.AnimSpringMass != 2 || s.AnimEasing != "ease-out" {
		t.Fatalf("unexpected settings %+v", s)
	}
	os.WriteFile(path, []byte(`{"batchcalls": "nope"}`), 0644)
	if _, err := ReadSettingsFile(path); err == nil {
		t.Fatalf("expected decode error for wrong type")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvName("logmutations"), "true")
	t.Setenv(EnvName("animation:spring:stiffness"), "250")
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	os.WriteFile(envFile, []byte("NATIVETREE_ANIMATION_EASING=linear\n"), 0644)
	t.Cleanup(func() { os.Unsetenv("NATIVETREE_ANIMATION_EASING") })
	s := DefaultSettings()
	if err := ApplyEnv(&s, envFile); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if !s.LogMutations || s.AnimSpringStiffness != 250 || s.AnimEasing != "linear" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if EnvName("animation:spring:mass") != "NATIVETREE_ANIMATION_SPRING_MASS" {
		t.Fatalf("bad env name %q", EnvName("animation:spring:mass"))
	}
}

func TestGenerateSchema(t *testing.T) {
	barr, err := GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(barr, &m); err != nil {
		t.Fatalf("schema is not json: %v", err)
	}
	if len(barr) == 0 {
		t.Fatalf("empty schema")
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	os.WriteFile(path, []byte(`{"logmutations": false}`), 0644)
	w, err := MakeWatcher(path, "")
	if err != nil {
		t.Fatalf("MakeWatcher: %v", err)
	}
	defer w.Close()
	updates := w.Subscribe()
	w.Start()
	os.WriteFile(path, []byte(`{"logmutations": true}`), 0644)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-updates:
			if s.LogMutations {
				if !w.Get().LogMutations {
					t.Fatalf("Get should return the reloaded settings")
				}
				return
			}
		case <-deadline:
			t.Fatalf("no reload observed")
		}
	}
}
