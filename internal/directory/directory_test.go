package directory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHasPackingOptions(t *testing.T) {
	dir := Default()
	want := []string{"unit", "carton", "pack"}
	if len(dir.PackingOptions) != len(want) {
		t.Fatalf("packing options = %v, want %v", dir.PackingOptions, want)
	}
	for i, opt := range want {
		if dir.PackingOptions[i] != opt {
			t.Errorf("packing option %d = %q, want %q", i, dir.PackingOptions[i], opt)
		}
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	dir, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(dir.Branches) == 0 || len(dir.Contacts) == 0 {
		t.Error("defaults missing branches or contacts")
	}
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	content := `{"branches":["Tabuk"],"contacts":[{"name":"Ops","number":"+966512345678"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	dir, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(dir.Branches) != 1 || dir.Branches[0] != "Tabuk" {
		t.Errorf("branches = %v, want override", dir.Branches)
	}
	if len(dir.Departments) == 0 {
		t.Error("departments should keep defaults when absent from file")
	}
	if got := dir.ContactNumber("Ops"); got != "+966512345678" {
		t.Errorf("ContactNumber = %q", got)
	}
}

func TestLoadBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected read error")
	}
}

func TestContactNumber(t *testing.T) {
	dir := Default()
	if got := dir.ContactNumber(""); got != dir.Contacts[0].Number {
		t.Errorf("empty name = %q, want first contact", got)
	}
	if got := dir.ContactNumber("Warehouse desk"); got != "+966500000002" {
		t.Errorf("named lookup = %q", got)
	}
	if got := dir.ContactNumber("nobody"); got != "" {
		t.Errorf("unknown name = %q, want empty", got)
	}
}
