// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package snapshot reads and writes baseline snapshots: Zstandard-compressed
// JSON dumps of the recorded baselines, usable for disaster recovery or for
// moving baselines between machines.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/kburgoyne/winacl/internal/model"
)

// FormatVersion is written into every snapshot and checked on import.
const FormatVersion = 1

// Data is the snapshot payload.
type Data struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Baselines  []model.Baseline `json:"baselines"`
}

// Write streams the baselines as compressed JSON to w.
func Write(w io.Writer, baselines []model.Baseline) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}

	data := Data{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Baselines:  baselines,
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zw.Close()
}

// Read decodes a snapshot from r.
func Read(r io.Reader) (*Data, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var data Data
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	if data.Version > FormatVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", data.Version, FormatVersion)
	}
	return &data, nil
}

// WriteFile writes the baselines to filename, creating or truncating it.
func WriteFile(filename string, baselines []model.Baseline) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Write(f, baselines)
}

// ReadFile reads a snapshot from filename.
func ReadFile(filename string) (*Data, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}
