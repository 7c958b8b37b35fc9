package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/voltastudio/volta-backend/internal/platform/apperr"
)

// Aspect ratios the generation backends accept. "match_input_image" defers
// to the dimensions of the reference image.
const AspectRatioMatchInput = "match_input_image"

var allowedAspectRatios = map[string]struct{}{
	AspectRatioMatchInput: {},
	"1:1":                 {},
	"4:3":                 {},
	"3:4":                 {},
	"16:9":                {},
	"9:16":                {},
	"3:2":                 {},
	"2:3":                 {},
	"21:9":                {},
}

// NormalizeAspectRatio validates a requested aspect ratio, defaulting empty
// input to match_input_image.
func NormalizeAspectRatio(ratio string) (string, error) {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return AspectRatioMatchInput, nil
	}
	if _, ok := allowedAspectRatios[ratio]; !ok {
		return "", fmt.Errorf("unsupported aspect ratio %q: %w", ratio, apperr.ErrInvalidArgument)
	}
	return ratio, nil
}

// GenerationRequest is the provider-facing description of one generation.
type GenerationRequest struct {
	AssetType   string
	Prompt      string
	AspectRatio string

	// Reference inputs. URLs must already be resolved to fetchable form.
	InputImageURLs []string
	InputVideoURL  string

	// Edit semantics: when set, the provider edits SourceURL in place of a
	// fresh generation.
	SourceURL string
	EditType  string

	Width  int
	Height int

	ThreadID string
}

// GenerationOutput is one produced artifact. Files carries every emitted
// object for multi-file outputs such as 3d model bundles.
type GenerationOutput struct {
	StorageKey string
	URL        string
	Width      int
	Height     int
	FileSize   int64
	MimeType   string
	Duration   float64
	Files      []string
	Cost       float64
}

// GenerationProvider is the boundary to the actual model backend. Activities
// call it; everything above correlates and reconciles its results.
type GenerationProvider interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationOutput, error)
	EnhancePrompt(ctx context.Context, prompt string) (string, error)
}
