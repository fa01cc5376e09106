package entity

import "github.com/google/uuid"

// FrameSelectionMessage is the inbound message from the frames.selection queue.
//
// Every selection field is optional. Threshold is a pointer so that an
// explicit zero, which selects on any change at all, can be told apart from
// an absent value.
type FrameSelectionMessage struct {
	JobID     uuid.UUID `json:"job_id"`
	UserID    string    `json:"user_id"`
	VideoKey  string    `json:"video_key"`
	UserEmail string    `json:"user_email"`

	Strategy  Strategy `json:"strategy,omitempty"`
	Count     int      `json:"count,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`

	// FrameRate overrides the extraction rate in frames per second; zero
	// keeps the service default.
	FrameRate int `json:"frame_rate,omitempty"`
}

// SelectionDefaults fills in what a request leaves out.
type SelectionDefaults struct {
	Strategy        Strategy
	Count           int
	SceneThreshold  float64
	MotionThreshold float64
}

// Params resolves the request against defaults. Only the parameter the
// resolved strategy uses is set.
func (m FrameSelectionMessage) Params(d SelectionDefaults) SelectionParams {
	p := SelectionParams{Strategy: m.Strategy}
	if p.Strategy == "" {
		p.Strategy = d.Strategy
	}

	switch p.Strategy {
	case StrategyUniform:
		p.Count = m.Count
		if p.Count == 0 {
			p.Count = d.Count
		}
	case StrategyScene:
		p.Threshold = d.SceneThreshold
	case StrategyMotion:
		p.Threshold = d.MotionThreshold
	}
	if m.Threshold != nil && p.Strategy != StrategyUniform {
		p.Threshold = *m.Threshold
	}
	return p
}

// VideoStatusMessage is the outbound message published to the video.status queue.
type VideoStatusMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	UserID        string    `json:"user_id"`
	Status        JobStatus `json:"status"`
	VideoKey      string    `json:"video_key"`
	Strategy      Strategy  `json:"strategy"`
	ZipKey        string    `json:"zip_key,omitempty"`
	FrameCount    int       `json:"frame_count,omitempty"`
	SelectedCount int       `json:"selected_count,omitempty"`
	Duration      float64   `json:"duration_seconds,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempt       int       `json:"attempt"`
	MaxAttempts   int       `json:"max_attempts"`
}

// FramesSelectedMessage hands the selected subsequence to the detection
// service. Frames are listed in capture order and name entries of the zip.
type FramesSelectedMessage struct {
	JobID    uuid.UUID `json:"job_id"`
	UserID   string    `json:"user_id"`
	VideoKey string    `json:"video_key"`
	ZipKey   string    `json:"zip_key"`
	Strategy Strategy  `json:"strategy"`
	Frames   []string  `json:"frames"`
}
