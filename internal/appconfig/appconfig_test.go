package appconfig

import "testing"

func TestParseScenePath(t *testing.T) {
	cfg, err := Parse([]string{"scene.splat"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ScenePath != "scene.splat" || cfg.Backend != BackendAuto || cfg.Supersample != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseDemoRejectsScenePath(t *testing.T) {
	if _, err := Parse([]string{"--demo", "scene.splat"}); err == nil {
		t.Fatal("expected error combining --demo with a scene path")
	}
}

func TestParseRejectsConflictingBackends(t *testing.T) {
	if _, err := Parse([]string{"--cpu", "--gpu", "scene.splat"}); err == nil {
		t.Fatal("expected error for --cpu and --gpu together")
	}
}

func TestParseNoSceneSelectsDemo(t *testing.T) {
	cfg, err := Parse([]string{})
	if err != nil {
		t.Fatalf("expected no scene path to select the demo scene, got error: %v", err)
	}
	if !cfg.Demo || cfg.ScenePath != "" {
		t.Fatalf("expected Demo with empty ScenePath, got %+v", cfg)
	}
}

func TestParseRejectsOutOfRangeSupersample(t *testing.T) {
	if _, err := Parse([]string{"--supersample", "5", "scene.splat"}); err == nil {
		t.Fatal("expected error for supersample outside [1,3]")
	}
}

func TestParseSelectsGPUBackend(t *testing.T) {
	cfg, err := Parse([]string{"--gpu", "scene.ply"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Backend != BackendGPU {
		t.Fatalf("expected BackendGPU, got %v", cfg.Backend)
	}
}
