package config

import (
	"os"
	"path"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MBDBG_HOME", home)

	conf := LoadConfig()
	if conf == nil {
		t.Fatal("LoadConfig returned nil")
	}
	// The default file leaves every option commented out.
	if conf.MaxBacktraceDepth != nil || conf.MaxScanInstructions != nil {
		t.Errorf("default config has options set: %+v", conf)
	}
	if conf.LittleEndian {
		t.Error("default config selects little-endian")
	}

	if _, err := os.Stat(path.Join(home, "config.yml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("MBDBG_HOME", t.TempDir())

	depth := 32
	scan := 2048
	if err := SaveConfig(&Config{
		MaxBacktraceDepth:   &depth,
		MaxScanInstructions: &scan,
		LittleEndian:        true,
		TraceFlags:          "microblaze,unwind",
	}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	conf := LoadConfig()
	if conf.MaxBacktraceDepth == nil || *conf.MaxBacktraceDepth != 32 {
		t.Errorf("got max-backtrace-depth %v, want 32", conf.MaxBacktraceDepth)
	}
	if conf.MaxScanInstructions == nil || *conf.MaxScanInstructions != 2048 {
		t.Errorf("got max-scan-instructions %v, want 2048", conf.MaxScanInstructions)
	}
	if !conf.LittleEndian {
		t.Error("little-endian flag lost")
	}
	if conf.TraceFlags != "microblaze,unwind" {
		t.Errorf("got trace-flags %q", conf.TraceFlags)
	}
}

func TestGetConfigFilePath(t *testing.T) {
	t.Setenv("MBDBG_HOME", "/opt/mbdbg")
	p, err := GetConfigFilePath("config.yml")
	if err != nil {
		t.Fatalf("GetConfigFilePath: %v", err)
	}
	if p != "/opt/mbdbg/config.yml" {
		t.Errorf("got %q, want /opt/mbdbg/config.yml", p)
	}
}
