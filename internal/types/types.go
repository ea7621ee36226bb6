package types

import "time"

// VideoMetadata describes the loaded source. Duration is zero until the
// media source reports it.
type VideoMetadata struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	URL      string  `json:"url"`
}

// AnalyzedFrame is one sampled still. Image holds base64 JPEG bytes.
type AnalyzedFrame struct {
	Time  float64 `json:"time"`
	Image string  `json:"image"`
}

type Clip struct {
	ID            string   `json:"id"`
	Start         float64  `json:"start"`
	End           float64  `json:"end"`
	Title         string   `json:"title"`
	ViralityScore int      `json:"viralityScore"`
	Summary       string   `json:"summary"`
	Keywords      []string `json:"keywords"`
}

func (c Clip) Duration() float64 { return c.End - c.Start }

type CaptionSegment struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}

// DurationWindow bounds clip length in seconds.
type DurationWindow struct {
	Min float64 `json:"minDuration"`
	Max float64 `json:"maxDuration"`
}

const (
	WindowFloor   = 15
	WindowCeiling = 59
)

func DefaultWindow() DurationWindow {
	return DurationWindow{Min: WindowFloor, Max: WindowCeiling}
}

func (w DurationWindow) Valid() bool {
	return w.Min > 0 && w.Min < w.Max
}

// NormalizeWindow applies the editor's slider bounds: min in [15,58] and
// max in [min+1,59].
func NormalizeWindow(minSec, maxSec float64) DurationWindow {
	newMin := max(WindowFloor, min(minSec, WindowCeiling-1))
	newMax := min(WindowCeiling, max(maxSec, newMin+1))
	return DurationWindow{Min: newMin, Max: newMax}
}

// HighlightRequest is what the generative collaborator receives when asked
// for clips.
type HighlightRequest struct {
	Duration     float64
	Context      string
	Frames       []AnalyzedFrame
	Window       DurationWindow
	ClipsN       int
	Instructions string
	System       string
	Schema       map[string]any
}

// CaptionRequest asks the collaborator for time-aligned caption candidates.
type CaptionRequest struct {
	Duration     float64
	Frames       []AnalyzedFrame
	Instructions string
	Schema       map[string]any
}

type ExportQuality string

const (
	Quality1080p ExportQuality = "1080p"
	Quality4K    ExportQuality = "4k"
)

type Settings struct {
	AutoSubtitle  bool          `json:"autoSubtitle"`
	ExportQuality ExportQuality `json:"exportQuality"`
	ShowWatermark bool          `json:"showWatermark"`
}

func DefaultSettings() Settings {
	return Settings{AutoSubtitle: true, ExportQuality: Quality1080p}
}

func (s Settings) Valid() bool {
	return s.ExportQuality == Quality1080p || s.ExportQuality == Quality4K
}

type Manifest struct {
	Input      string         `json:"input"`
	Duration   float64        `json:"duration"`
	Window     DurationWindow `json:"window"`
	Settings   Settings       `json:"settings"`
	Selected   string         `json:"selected,omitempty"`
	Clips      []ManifestClip `json:"clips"`
	Captions   int            `json:"captions"`
	Synthetic  bool           `json:"synthetic"`
	ExportedAt time.Time      `json:"exported_at"`
}

type ManifestClip struct {
	ID            string   `json:"id"`
	StartSec      float64  `json:"start_sec"`
	EndSec        float64  `json:"end_sec"`
	Title         string   `json:"title"`
	ViralityScore int      `json:"virality_score"`
	Summary       string   `json:"summary"`
	Tags          []string `json:"tags"`
	Subtitles     string   `json:"subtitles,omitempty"`
}

// Dur converts seconds to a time.Duration.
func Dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
