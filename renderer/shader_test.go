package renderer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempShader(t *testing.T, blob []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shader.spv")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadShaderModuleRejectsUnevenBlob(t *testing.T) {
	device := &fakeDevice{shaderModule: &fakeShaderModule{}}
	path := writeTempShader(t, []byte{1, 2, 3, 4, 5, 6})

	_, err := LoadShaderModule(device, path)
	if err == nil {
		t.Fatal("expected error for blob whose length is not a multiple of 4")
	}
}

func TestLoadShaderModuleRejectsEmptyBlob(t *testing.T) {
	device := &fakeDevice{shaderModule: &fakeShaderModule{}}
	path := writeTempShader(t, nil)

	_, err := LoadShaderModule(device, path)
	if err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestLoadShaderModuleMissingFile(t *testing.T) {
	device := &fakeDevice{shaderModule: &fakeShaderModule{}}

	_, err := LoadShaderModule(device, filepath.Join(t.TempDir(), "missing.spv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadShaderModuleValidBlob(t *testing.T) {
	module := &fakeShaderModule{}
	device := &fakeDevice{shaderModule: module}
	path := writeTempShader(t, []byte{1, 0, 0, 0, 2, 0, 0, 0})

	got, err := LoadShaderModule(device, path)
	if err != nil {
		t.Fatalf("LoadShaderModule: %v", err)
	}
	if got != module {
		t.Error("returned module is not the one the device created")
	}
}

func TestBytesToBytecodeIsLittleEndian(t *testing.T) {
	words := bytesToBytecode([]byte{0x01, 0x00, 0x00, 0x00, 0x78, 0x56, 0x34, 0x12})
	if len(words) != 2 {
		t.Fatalf("word count = %d, want 2", len(words))
	}
	if words[0] != 1 {
		t.Errorf("words[0] = %#x, want 1", words[0])
	}
	if words[1] != 0x12345678 {
		t.Errorf("words[1] = %#x, want 0x12345678", words[1])
	}
}
