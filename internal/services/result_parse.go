package services

import (
	"path"
	"strings"

	types "github.com/voltastudio/volta-backend/internal/domain"
)

// ResultKind tags which completion payload shape was recognized.
type ResultKind int

const (
	ResultUnrecognized ResultKind = iota
	ResultCurrent
	ResultLegacy
)

// ParsedResult is a completion payload reduced to one authoritative locator
// plus intrinsic metadata. Unrecognized payloads keep Kind at
// ResultUnrecognized and carry nothing else.
type ParsedResult struct {
	Kind       ResultKind
	Locator    types.Locator
	Width      int
	Height     int
	FileSize   int64
	MimeType   string
	Duration   float64
	PreviewURL string
	Files      []string
}

// ParseGenerationResult classifies a provider output into the current
// storage-key form or the legacy handle form. Both may be present on
// transitional payloads; the current form wins.
func ParseGenerationResult(out *GenerationOutput, legacyHandle string) ParsedResult {
	if out == nil {
		return ParsedResult{Kind: ResultUnrecognized}
	}

	res := ParsedResult{
		Width:    out.Width,
		Height:   out.Height,
		FileSize: out.FileSize,
		MimeType: out.MimeType,
		Duration: out.Duration,
		Files:    out.Files,
	}

	key := strings.TrimSpace(out.StorageKey)
	if key == "" && len(out.Files) > 0 {
		key = selectModelFile(out.Files)
	}
	if key != "" {
		res.Kind = ResultCurrent
		res.Locator = types.Locator{StorageKey: key, URL: strings.TrimSpace(out.URL)}
		return res
	}

	if handle := strings.TrimSpace(legacyHandle); handle != "" {
		res.Kind = ResultLegacy
		res.Locator = types.Locator{LegacyHandle: handle}
		return res
	}

	if url := strings.TrimSpace(out.URL); url != "" {
		res.Kind = ResultCurrent
		res.Locator = types.Locator{URL: url}
		return res
	}

	return ParsedResult{Kind: ResultUnrecognized}
}

// modelExtensions in preference order. 3d outputs arrive as a file bundle
// (model plus textures plus previews); the model file is the asset.
var modelExtensions = []string{".glb", ".gltf", ".obj", ".fbx", ".usdz"}

func selectModelFile(files []string) string {
	for _, ext := range modelExtensions {
		for _, f := range files {
			if strings.EqualFold(path.Ext(f), ext) {
				return f
			}
		}
	}
	return ""
}

// SelectPreviewFile finds a rendered preview image inside a 3d output bundle.
func SelectPreviewFile(files []string) string {
	for _, f := range files {
		switch strings.ToLower(path.Ext(f)) {
		case ".png", ".jpg", ".jpeg", ".webp":
			return f
		}
	}
	return ""
}
