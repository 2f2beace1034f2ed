package dispatch

import "testing"

func TestCountFilesEmpty(t *testing.T) {
	dir := t.TempDir()
	if count := CountFiles(dir); count != 0 {
		t.Errorf("CountFiles(empty dir) = %d, want 0", count)
	}
}

func TestCountFilesNonExistent(t *testing.T) {
	if count := CountFiles("/nonexistent/path/that/does/not/exist"); count != 0 {
		t.Errorf("CountFiles(nonexistent) = %d, want 0", count)
	}
}

func TestGenerateUnknownTarget(t *testing.T) {
	_, err := Generate(nil, "ruby", t.TempDir())
	if err == nil {
		t.Fatal("expected an error for an unregistered target")
	}
}

func TestNamesIncludesPython(t *testing.T) {
	names := Names()
	found := false
	for _, n := range names {
		if n == "python" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'python' in registered targets, got %v", names)
	}
}
