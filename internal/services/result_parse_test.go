package services

import "testing"

func TestParseGenerationResultCurrentForm(t *testing.T) {
	res := ParseGenerationResult(&GenerationOutput{
		StorageKey: "org/a.png",
		Width:      1024,
		Height:     768,
		FileSize:   5000,
	}, "")
	if res.Kind != ResultCurrent {
		t.Fatalf("kind: want=ResultCurrent got=%v", res.Kind)
	}
	if got := res.Locator.ID(); got != "key:org/a.png" {
		t.Fatalf("locator: want=key:org/a.png got=%s", got)
	}
}

func TestParseGenerationResultLegacyForm(t *testing.T) {
	res := ParseGenerationResult(&GenerationOutput{}, "legacy-42")
	if res.Kind != ResultLegacy {
		t.Fatalf("kind: want=ResultLegacy got=%v", res.Kind)
	}
	if got := res.Locator.ID(); got != "legacy:legacy-42" {
		t.Fatalf("locator: want=legacy:legacy-42 got=%s", got)
	}
}

func TestParseGenerationResultCurrentWinsOverLegacy(t *testing.T) {
	res := ParseGenerationResult(&GenerationOutput{StorageKey: "org/a.png"}, "legacy-42")
	if res.Kind != ResultCurrent {
		t.Fatalf("kind: want=ResultCurrent got=%v", res.Kind)
	}
	if got := res.Locator.ID(); got != "key:org/a.png" {
		t.Fatalf("locator: want=key:org/a.png got=%s", got)
	}
}

func TestParseGenerationResultUnrecognized(t *testing.T) {
	if res := ParseGenerationResult(&GenerationOutput{}, ""); res.Kind != ResultUnrecognized {
		t.Fatalf("empty output kind: want=ResultUnrecognized got=%v", res.Kind)
	}
	if res := ParseGenerationResult(nil, ""); res.Kind != ResultUnrecognized {
		t.Fatalf("nil output kind: want=ResultUnrecognized got=%v", res.Kind)
	}
}

func TestParseGenerationResultURLOnly(t *testing.T) {
	res := ParseGenerationResult(&GenerationOutput{URL: "https://cdn.test/v.mp4", Duration: 4.5}, "")
	if res.Kind != ResultCurrent {
		t.Fatalf("kind: want=ResultCurrent got=%v", res.Kind)
	}
	if got := res.Locator.ID(); got != "url:https://cdn.test/v.mp4" {
		t.Fatalf("locator: want=url:https://cdn.test/v.mp4 got=%s", got)
	}
}

func TestParseGenerationResultModelBundle(t *testing.T) {
	files := []string{
		"org/model/texture.png",
		"org/model/scene.gltf",
		"org/model/scene.glb",
		"org/model/preview.jpg",
	}
	res := ParseGenerationResult(&GenerationOutput{Files: files}, "")
	if res.Kind != ResultCurrent {
		t.Fatalf("kind: want=ResultCurrent got=%v", res.Kind)
	}
	if got := res.Locator.StorageKey; got != "org/model/scene.glb" {
		t.Fatalf("model file: want=org/model/scene.glb got=%s", got)
	}
	if got := SelectPreviewFile(files); got != "org/model/texture.png" {
		t.Fatalf("preview file: want=org/model/texture.png got=%s", got)
	}
}
