package types

// Line is the canonical output unit. Text is never empty; Score and Box are
// only filled when the engine emitted old-style detections.
type Line struct {
	Text  string   `json:"text"`
	Score *float64 `json:"score,omitempty"`
	Box   []Point  `json:"box,omitempty"`
}

// Result is the /ocr response body.
type Result struct {
	Text  string `json:"text"`
	Lines []Line `json:"lines"`
}
