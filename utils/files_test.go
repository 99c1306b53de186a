package utils

import (
	"testing"

	"github.com/spf13/afero"
)

func TestWriteExistsRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/photos/u1/p1.jpg"

	if err := WriteFile(fs, path, []byte("jpeg")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if ok, err := Exists(fs, path); err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}

	if err := Remove(fs, path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := Exists(fs, path); ok {
		t.Error("file still exists after Remove")
	}
	if err := Remove(fs, path); err != nil {
		t.Errorf("Remove of missing file: %v", err)
	}
}

func TestEnsureDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := EnsureDir(fs, "/data/photos"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if ok, err := afero.DirExists(fs, "/data/photos"); err != nil || !ok {
		t.Errorf("DirExists = %v, %v", ok, err)
	}
	if err := EnsureDir(fs, "/data/photos"); err != nil {
		t.Errorf("EnsureDir on existing dir: %v", err)
	}
}
