// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package testdb hands out migrated sqlite databases to tests.
package testdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/autobrr/gamarr/internal/database"
)

var templates sync.Map // key -> func() (string, error)

// PathFromTemplate copies a template database, migrated once per key, into
// t.TempDir and returns the path of the copy.
func PathFromTemplate(t *testing.T, key, filename string) string {
	t.Helper()

	build, _ := templates.LoadOrStore(key, sync.OnceValues(func() (string, error) {
		return migrateTemplate(key)
	}))
	src, err := build.(func() (string, error))()
	if err != nil {
		t.Fatalf("prepare template database %q: %v", key, err)
	}

	dst := filepath.Join(t.TempDir(), filename)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		data, err := os.ReadFile(src + suffix)
		if suffix != "" && errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			t.Fatalf("read template database %q: %v", key, err)
		}
		if err := os.WriteFile(dst+suffix, data, 0o644); err != nil {
			t.Fatalf("copy template database %q: %v", key, err)
		}
	}
	return dst
}

func migrateTemplate(key string) (string, error) {
	dir, err := os.MkdirTemp("", "gamarr-testdb-")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "template.db")
	db, err := database.New(path)
	if err != nil {
		return "", fmt.Errorf("migrate %s: %w", key, err)
	}
	return path, db.Close()
}
