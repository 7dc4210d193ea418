package sandbox

import (
	"archive/tar"
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func buildTar(t *testing.T, entries map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestExtractPNGsFromTar_FiltersByExtensionAndBasename(t *testing.T) {
	buf := buildTar(t, map[string]string{
		"output/plot.png":  "pngbytes1",
		"output/notes.txt": "ignored",
		"output/sub/chart.PNG": "pngbytes2",
	})

	files, err := extractPNGsFromTar(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 png files, got %d: %v", len(files), files)
	}

	decoded, err := base64.StdEncoding.DecodeString(files["plot.png"])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "pngbytes1" {
		t.Errorf("unexpected content: %s", decoded)
	}
	if _, ok := files["chart.PNG"]; !ok {
		t.Error("expected basename-only key for nested entry")
	}
	if _, ok := files["notes.txt"]; ok {
		t.Error("non-png entry should have been filtered")
	}
}

func TestExtractPNGsFromTar_NoFilesReturnsNil(t *testing.T) {
	buf := buildTar(t, map[string]string{"readme.md": "hi"})

	files, err := extractPNGsFromTar(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files != nil {
		t.Errorf("expected nil map when no pngs found, got %v", files)
	}
}

func TestTimeoutResult_MentionsTimeout(t *testing.T) {
	sb := &Sandbox{timeout: 30 * time.Second}
	res := sb.timeoutResult()
	if res.StatusCode != -1 {
		t.Errorf("expected exit code -1, got %d", res.StatusCode)
	}
	if !bytesContains(res.Stderr, "Timeout error") {
		t.Errorf("expected stderr to mention timeout, got %q", res.Stderr)
	}
}

func bytesContains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}

func TestWalkHostOutputDir_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plot.png"), []byte("pngbytes1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "chart.PNG"), []byte("pngbytes2"), 0644); err != nil {
		t.Fatal(err)
	}

	files := walkHostOutputDir(dir)
	if len(files) != 2 {
		t.Fatalf("expected 2 png files, got %d: %v", len(files), files)
	}

	decoded, err := base64.StdEncoding.DecodeString(files["plot.png"])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != "pngbytes1" {
		t.Errorf("unexpected content: %s", decoded)
	}
	if _, ok := files["chart.PNG"]; !ok {
		t.Error("expected basename-only key for nested entry")
	}
}

func TestWalkHostOutputDir_NoFilesReturnsNil(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	if files := walkHostOutputDir(dir); files != nil {
		t.Errorf("expected nil map when no pngs found, got %v", files)
	}
}
