package generation

const (
	WorkflowName = "asset_generation"

	ActivityGenerate = "generate_asset"
	ActivityComplete = "complete_asset"
	ActivityFail     = "fail_asset"
)

// Input is the workflow input, serialized into workflow history. Only plain
// data crosses this boundary; database records stay behind the activities.
type Input struct {
	AssetID     string   `json:"asset_id"`
	AssetType   string   `json:"asset_type"`
	Prompt      string   `json:"prompt"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	InputImages []string `json:"input_images,omitempty"`
	InputVideo  string   `json:"input_video,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	EditType    string   `json:"edit_type,omitempty"`
	ThreadID    string   `json:"thread_id,omitempty"`
}

// GenerateResult is what the generation activity hands to the completion
// activity through workflow history.
type GenerateResult struct {
	StorageKey   string   `json:"storage_key,omitempty"`
	URL          string   `json:"url,omitempty"`
	LegacyHandle string   `json:"legacy_handle,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	FileSize     int64    `json:"file_size,omitempty"`
	MimeType     string   `json:"mime_type,omitempty"`
	Duration     float64  `json:"duration,omitempty"`
	Files        []string `json:"files,omitempty"`
	Cost         float64  `json:"cost,omitempty"`
}

// FailInput drives the failure/cancel reconciliation activity.
type FailInput struct {
	AssetID  string `json:"asset_id"`
	Message  string `json:"message"`
	Canceled bool   `json:"canceled,omitempty"`
}
