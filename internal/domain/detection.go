package domain

// Detection is a single raw face detection produced by a camera agent.
// The embedding arrives pre-computed; this service never generates vectors.
type Detection struct {
	ImageURL    string `json:"image_url" binding:"required"`
	Embedding   Vector `json:"embedding" binding:"required"`
	FloorNum    int    `json:"floor_num"`
	FloorSubNum int    `json:"floor_sub_num"`
}

// ResolutionOutcome is the terminal state of a single detection's resolution.
type ResolutionOutcome string

const (
	OutcomeMatched ResolutionOutcome = "matched"
	OutcomeCreated ResolutionOutcome = "created"
)

// Resolution is the successful result of resolving one detection.
type Resolution struct {
	IdentityID   string            `json:"identity_id"`
	AppearanceID string            `json:"appearance_id"`
	Outcome      ResolutionOutcome `json:"outcome"`
	Distance     float64           `json:"distance"`
}

// DetectionFailure reports one detection that could not be resolved.
// Kind is one of the failure kinds defined by the resolution engine
// (not_found, dimension_mismatch, validation_error, persistence_error).
type DetectionFailure struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// BatchResult summarizes one batch of detections. A failed item never aborts
// its siblings; every submitted detection is accounted for exactly once in
// either Resolved or Failed.
type BatchResult struct {
	ProcessedCount int                `json:"processed_count"`
	Resolved       []Resolution       `json:"resolved"`
	Failed         []DetectionFailure `json:"failed"`
}
