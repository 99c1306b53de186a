package utils

import (
	"regexp"
	"testing"
)

var photoKeyPattern = regexp.MustCompile(`^photos/u1/2024-07-10-([a-z0-9-]+)-[0-9a-f-]{36}(\.[a-z]+)?$`)

func TestPhotoKey(t *testing.T) {
	tests := []struct {
		filename string
		slug     string
		ext      string
	}{
		{"Mon Ventre.JPG", "mon-ventre", ".jpg"},
		{"été à la plage.png", "ete-a-la-plage", ".png"},
		{".png", "photo", ".png"},
		{"noext", "noext", ""},
	}
	for _, tt := range tests {
		key := PhotoKey("u1", "2024-07-10", tt.filename)
		m := photoKeyPattern.FindStringSubmatch(key)
		if m == nil {
			t.Errorf("PhotoKey(%q) = %q, unexpected shape", tt.filename, key)
			continue
		}
		if m[1] != tt.slug || m[2] != tt.ext {
			t.Errorf("PhotoKey(%q) = %q, want slug %q ext %q", tt.filename, key, tt.slug, tt.ext)
		}
	}

	if PhotoKey("u1", "2024-07-10", "a.png") == PhotoKey("u1", "2024-07-10", "a.png") {
		t.Error("PhotoKey is not unique per upload")
	}
}
