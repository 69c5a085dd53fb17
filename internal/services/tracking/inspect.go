// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// Finding is the first problem an inspection turned up.
type Finding struct {
	Reason ImportRejectionReason
	File   string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.File)
}

// Inspector looks at downloaded content before it is handed to the import
// stage. A nil finding means the content looks clean.
type Inspector interface {
	Inspect(ctx context.Context, path string, encrypted bool) (*Finding, error)
}

// Shortcut and script formats that have no place in a game release.
var dangerousExtensions = map[string]struct{}{
	".lnk": {}, ".scr": {}, ".pif": {}, ".vbs": {}, ".vbe": {}, ".wsf": {},
	".wsh": {}, ".hta": {}, ".jse": {}, ".cpl": {}, ".msc": {}, ".url": {},
}

var executableExtensions = map[string]struct{}{
	".exe": {}, ".bat": {}, ".cmd": {}, ".com": {}, ".ps1": {}, ".msi": {},
}

// Extensions an executable hides behind when posing as something else.
var decoyExtensions = map[string]struct{}{
	".txt": {}, ".nfo": {}, ".pdf": {}, ".doc": {}, ".jpg": {}, ".png": {},
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mp3": {}, ".iso": {}, ".zip": {}, ".rar": {},
}

// ContentInspector walks a download and peeks into the archives it finds.
type ContentInspector struct{}

func (ContentInspector) Inspect(ctx context.Context, path string, encrypted bool) (*Finding, error) {
	if encrypted {
		return &Finding{Reason: RejectionSuspiciousContent, File: filepath.Base(path)}, nil
	}
	if path == "" {
		return nil, nil
	}

	var found *Finding
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if f := classify(d.Name()); f != nil {
			found = f
			return fs.SkipAll
		}
		f, err := inspectArchive(ctx, p)
		if err != nil {
			return err
		}
		if f != nil {
			found = f
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	return found, nil
}

func classify(name string) *Finding {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	if _, ok := dangerousExtensions[ext]; ok {
		return &Finding{Reason: RejectionDangerousFile, File: name}
	}
	if _, ok := executableExtensions[ext]; ok {
		inner := filepath.Ext(strings.TrimSuffix(lower, ext))
		if _, ok := decoyExtensions[inner]; ok {
			return &Finding{Reason: RejectionExecutableFile, File: name}
		}
	}
	return nil
}

// inspectArchive classifies the entries of an archive without extracting
// it. Files that are not archives are ignored.
func inspectArchive(ctx context.Context, path string) (*Finding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	format, _, err := archives.Identify(ctx, filepath.Base(path), file)
	if errors.Is(err, archives.NoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	extractor, ok := format.(archives.Extractor)
	if !ok {
		return nil, nil
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var found *Finding
	err = extractor.Extract(ctx, file, func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		if f := classify(info.NameInArchive); f != nil {
			found = &Finding{Reason: f.Reason, File: filepath.Base(path) + "/" + info.NameInArchive}
			return fs.SkipAll
		}
		return nil
	})
	switch {
	case found != nil:
		return found, nil
	case err != nil && isEncryptionError(err):
		return &Finding{Reason: RejectionSuspiciousContent, File: filepath.Base(path)}, nil
	case err != nil && !errors.Is(err, fs.SkipAll):
		return nil, fmt.Errorf("read archive %s: %w", filepath.Base(path), err)
	}
	return nil, nil
}

func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypted") || strings.Contains(msg, "password")
}
