package verify

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"qoiproc/parallel"
	"qoiproc/qoi"
)

func writeFile(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		t.Fatalf("WriteFile(%q) failed: %v", name, err)
	}
}

func pngSample(t *testing.T, seed uint8) (image.Image, []byte) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 9, 7))
	for y := range 7 {
		for x := range 9 {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x*20) + seed, uint8(y * 30), seed, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return img, buf.Bytes()
}

func encodeQOI(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := qoi.Encode(&buf, img, nil); err != nil {
		t.Fatalf("qoi.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a, aPNG := pngSample(t, 0)
	_, bPNG := pngSample(t, 3)
	writeFile(t, filepath.Join(dir, "a.png"), aPNG)
	writeFile(t, filepath.Join(dir, "b.png"), bPNG)
	writeFile(t, filepath.Join(dir, "qoi", "a.qoi"), encodeQOI(t, a))

	cmd := &CLICmd{Scan: dir, Encoded: "qoi", Channels: "auto", Order: "bgr"}
	if err := cmd.Validate(nil); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cmd.Encoded != filepath.Join(dir, "qoi") {
		t.Errorf("Encoded = %q, want it under %q", cmd.Encoded, dir)
	}
	if err := cmd.Run(parallel.Start(2)); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
}

func TestRunReportsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	_, aPNG := pngSample(t, 0)
	b, _ := pngSample(t, 3)
	writeFile(t, filepath.Join(dir, "a.png"), aPNG)
	// encoded from a different source
	writeFile(t, filepath.Join(dir, "qoi", "a.qoi"), encodeQOI(t, b))

	cmd := &CLICmd{Scan: dir, Encoded: "qoi", Channels: "auto", Order: "rgb"}
	if err := cmd.Validate(nil); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if err := cmd.Run(parallel.Start(1)); err == nil {
		t.Error("Run() succeeded with a stale encoded file")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "file.png"), []byte("x"))

	tests := []struct {
		name    string
		cmd     CLICmd
		wantErr bool
	}{
		{"defaults", CLICmd{Scan: dir, Encoded: "qoi", Channels: "auto", Order: "rgb"}, false},
		{"absolute encoded", CLICmd{Scan: dir, Encoded: dir, Channels: "3", Order: "rgb"}, false},
		{"missing scan", CLICmd{Scan: filepath.Join(dir, "nope"), Encoded: "qoi", Channels: "auto", Order: "rgb"}, true},
		{"scan is a file", CLICmd{Scan: filepath.Join(dir, "file.png"), Encoded: "qoi", Channels: "auto", Order: "rgb"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(nil); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
