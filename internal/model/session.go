package model

import "time"

// Interview roles. Exactly these two are valid; one MediaRecord is kept per
// (session, role) and re-upload replaces it wholesale.
const (
	RoleQuestioner = "questioner"
	RoleAnswerer   = "answerer"
)

// ValidRole reports whether role is one of the two interview roles.
func ValidRole(role string) bool {
	return role == RoleQuestioner || role == RoleAnswerer
}

// MediaRecord describes one uploaded interview video.
type MediaRecord struct {
	SessionID   string `json:"sessionId"`
	Role        string `json:"role"`
	Key         string `json:"key"`
	Bucket      string `json:"bucket,omitempty"`
	LocalPath   string `json:"localPath,omitempty"`
	ContentType string `json:"contentType"`
}

// Summary is the fused analysis result for a session. FusedLieProbability
// keeps the original audio/macro/micro blend after enrichment rewrites
// LieProbability with the alignment-adjusted score, so both values stay
// readable.
type Summary struct {
	LieProbability      float64            `json:"lieProbability"`
	FusedLieProbability float64            `json:"fusedLieProbability"`
	AudioScore          float64            `json:"audioScore"`
	MacroScore          float64            `json:"macroScore"`
	MicroScore          float64            `json:"microScore"`
	ComparisonVector    []float64          `json:"comparisonVector"`
	AudioVector         []float64          `json:"audioVector"`
	MacroVector         []float64          `json:"macroVector"`
	LLMVector           map[string]float64 `json:"llmVector,omitempty"`
	AlignmentScore      *float64           `json:"alignmentScore,omitempty"`
}

// Session is the durable per-interview record, stored as one JSON document
// keyed by session id.
type Session struct {
	SessionID  string                 `json:"sessionId"`
	Media      map[string]MediaRecord `json:"media"`
	Transcript string                 `json:"transcript,omitempty"`
	Summary    *Summary               `json:"summary,omitempty"`
	LLMVector  map[string]float64     `json:"llmVector,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// InferenceResult is the transient output of one scoring backend call.
type InferenceResult struct {
	EmotionVector []float64 `json:"emotion_vector"`
	LieScore      float64   `json:"lie_score"`
}

// InvokePayload is the request body sent to a scoring backend.
type InvokePayload struct {
	SessionID string `json:"sessionId"`
	VideoKey  string `json:"videoKey"`
	Bucket    string `json:"bucket,omitempty"`
	Role      string `json:"role"`
}
