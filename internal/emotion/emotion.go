package emotion

// Canonical is the fixed emotion ordering shared by every vector in the
// system. Scoring backends, the fusion math and the LLM weighting all emit
// and consume vectors in exactly this order.
var Canonical = []string{
	"angry",
	"calm",
	"disgust",
	"fearful",
	"happy",
	"neutral",
	"sad",
	"surprised",
}

// Count is the canonical vector length.
const Count = 8

// Index maps an emotion name to its slot in a canonical vector.
var Index = func() map[string]int {
	m := make(map[string]int, len(Canonical))
	for i, name := range Canonical {
		m[name] = i
	}
	return m
}()

// ZeroVector returns a fresh all-zero canonical-length vector.
func ZeroVector() []float64 {
	return make([]float64, Count)
}
