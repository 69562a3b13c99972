package publishing

import (
	"encoding/json"
)

const maxProjectScore = 100.0

// ProjectScore computes the impact score persisted alongside a completed
// project publication. It is a pure function of the submitted document so it
// can be attached to the terminal write without a second round trip to the
// record content. Returns nil when the document is not a JSON object.
func ProjectScore(content json.RawMessage) *float64 {
	var doc struct {
		Description  string            `json:"description"`
		Skills       []string          `json:"skills"`
		Artifacts    []json.RawMessage `json:"artifacts"`
		Links        []string          `json:"links"`
		Endorsements []json.RawMessage `json:"endorsements"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil
	}

	score := 10.0
	score += capped(2.0*float64(len(doc.Skills)), 30)
	score += capped(5.0*float64(len(doc.Artifacts)+len(doc.Links)), 25)
	score += capped(5.0*float64(len(doc.Endorsements)), 25)
	if len(doc.Description) >= 200 {
		score += 10
	}
	if score > maxProjectScore {
		score = maxProjectScore
	}
	return &score
}

func capped(value, limit float64) float64 {
	if value > limit {
		return limit
	}
	return value
}
