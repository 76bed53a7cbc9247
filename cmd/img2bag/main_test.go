package main

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/klog/v2"

	"github.com/tstromberg/img2bag/pkg/bag"
	"github.com/tstromberg/img2bag/pkg/img2bag"
)

func TestMain(m *testing.M) {
	klog.InitFlags(nil)
	os.Exit(m.Run())
}

func imageDir(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= n; i++ {
		f, err := os.Create(filepath.Join(dir, "img"+string(rune('0'+i))+".png"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 6))); err != nil {
			t.Fatalf("encode: %v", err)
		}
		f.Close()
	}
	return dir
}

func TestRun(t *testing.T) {
	d1, d2 := imageDir(t, 2), imageDir(t, 3)
	out := filepath.Join(t.TempDir(), "run")

	args := []string{"img2bag",
		"--directories", d1, "--directories", d2,
		"--topics", "/cam/front,/rear/left",
		"-ts", "100", "-r", "4", "-s", "4",
		"-o", out,
	}
	if err := newApp().Run(args); err != nil {
		t.Fatalf("Run: %v", err)
	}

	md, err := bag.ReadMetadata(out)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	info := md.Info
	if info.StorageIdentifier != "mcap" || info.MessageCount != 10 || info.StartingTime.NanosecondsSinceEpoch != 100e9 || info.Duration.Nanoseconds != 0.5e9 {
		t.Errorf("metadata = %+v", info)
	}

	var names []string
	for _, tp := range info.Topics {
		names = append(names, tp.TopicMetadata.Name)
	}
	want := []string{"/cam/front", "/cam/camera_info", "/rear/left", "/rear/camera_info"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("topics mismatch (-want +got):\n%s", diff)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := imageDir(t, 2)
	tmp := t.TempDir()

	tests := []struct {
		file    string
		content string
	}{
		{"img2bag.yaml", "directories: [" + dir + "]\ntopics: [cam]\ntimestamp: 50\nformat: sqlite3\noutput: " + filepath.Join(tmp, "yaml") + "\n"},
		{"img2bag.json", `{"directories": ["` + dir + `"], "topics": ["cam"], "timestamp": 50, "format": "sqlite3", "output": "` + filepath.Join(tmp, "json") + `"}`},
		{"img2bag.toml", "directories = ['" + dir + "']\ntopics = ['cam']\ntimestamp = 50\nformat = 'sqlite3'\noutput = '" + filepath.Join(tmp, "toml") + "'\n"},
	}

	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			p := filepath.Join(tmp, tc.file)
			if err := os.WriteFile(p, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}

			fc, err := loadConfigFile(p)
			if err != nil {
				t.Fatalf("loadConfigFile: %v", err)
			}

			// flags win over the file
			if err := newApp().Run([]string{"img2bag", "--config", p, "--rate", "10"}); err != nil {
				t.Fatalf("Run: %v", err)
			}

			md, err := bag.ReadMetadata(fc.Output)
			if err != nil {
				t.Fatalf("ReadMetadata: %v", err)
			}
			info := md.Info
			if info.StorageIdentifier != "sqlite3" || info.StartingTime.NanosecondsSinceEpoch != 50e9 || info.Duration.Nanoseconds != 0.1e9 {
				t.Errorf("metadata = %+v", info)
			}
		})
	}
}

func TestRunConfigErrors(t *testing.T) {
	dir := imageDir(t, 1)
	out := filepath.Join(t.TempDir(), "out")

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"mismatched", []string{"-d", "/nope1,/nope2", "-t", "a,b,c", "-o", out}, "directories"},
		{"no output", []string{"-d", dir, "-t", "cam"}, "output"},
		{"bad size", []string{"-d", dir, "-t", "cam", "-o", out, "-s", "0"}, "image-size"},
		{"bad format", []string{"-d", dir, "-t", "cam", "-o", out, "-f", "bag"}, "format"},
		{"bad rate", []string{"-d", dir, "-t", "cam", "-o", out, "-r", "0"}, "rate"},
		{"bad camera info", []string{"-d", dir, "-t", "cam", "-o", out, "-c", "info-2"}, "camera-info-topic"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := newApp().Run(append([]string{"img2bag"}, tc.args...))
			var ce *img2bag.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Run err = %v, want *img2bag.ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Errorf("field = %q, want %q", ce.Field, tc.field)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("output created despite configuration error")
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{"[a, b]", "c", " d ,", "[]"})
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got); diff != "" {
		t.Errorf("splitList mismatch (-want +got):\n%s", diff)
	}
}
