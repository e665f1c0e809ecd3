// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package snapshot

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/kburgoyne/winacl/internal/model"
)

func sampleBaselines() []model.Baseline {
	return []model.Baseline{
		{ID: 1, Path: `C:\Data`, ObjectType: "file", Descriptor: "owner: BUILTIN\\Administrators\n", CapturedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		{ID: 2, Path: `HKLM\Software\Vendor`, ObjectType: "registry", Descriptor: "owner: SYSTEM\n", CapturedAt: time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleBaselines()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Zstandard magic: 28 b5 2f fd.
	b := buf.Bytes()
	if len(b) < 4 || b[0] != 0x28 || b[1] != 0xb5 || b[2] != 0x2f || b[3] != 0xfd {
		t.Fatalf("output does not start with zstd magic: % x", b[:4])
	}

	data, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data.Version != FormatVersion {
		t.Fatalf("version = %d, want %d", data.Version, FormatVersion)
	}
	if data.ExportedAt.IsZero() {
		t.Fatal("exported_at not set")
	}
	if len(data.Baselines) != 2 {
		t.Fatalf("got %d baselines, want 2", len(data.Baselines))
	}
	if data.Baselines[1].Path != `HKLM\Software\Vendor` || data.Baselines[1].ObjectType != "registry" {
		t.Fatalf("baseline mismatch: %+v", data.Baselines[1])
	}
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselines.json.zst")
	if err := WriteFile(path, sampleBaselines()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data.Baselines) != 2 {
		t.Fatalf("got %d baselines, want 2", len(data.Baselines))
	}
}

func TestRead_RejectsNewerVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Re-encode with a bumped version.
	data, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data.Version = FormatVersion + 1

	var buf2 bytes.Buffer
	if err := writeRaw(&buf2, data); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}
	if _, err := Read(&buf2); err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestRead_GarbageInput(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Fatal("expected error for non-zstd input")
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// writeRaw encodes an arbitrary payload the same way Write does, without
// stamping version or timestamp.
func writeRaw(w io.Writer, data *Data) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
