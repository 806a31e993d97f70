package compare

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// comparisonDocument is the JSON envelope around a comparison set. It
// carries the same reference and timestamp stamp as single-quote reports
// so the two can be filed together.
type comparisonDocument struct {
	Reference      string    `json:"reference"`
	Kind           string    `json:"kind"`
	GeneratedAt    time.Time `json:"generatedAt"`
	CheapestPlanID string    `json:"cheapestPlanId,omitempty"`
	PlanCount      int       `json:"planCount"`
	*ComparisonSet
}

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation

	// now and reference are overridable for tests
	now       func() time.Time
	reference func() string
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	now, reference := time.Now, uuid.NewString
	if jf.now != nil {
		now = jf.now
	}
	if jf.reference != nil {
		reference = jf.reference
	}

	doc := comparisonDocument{
		Reference:     reference(),
		Kind:          "comparison",
		GeneratedAt:   now().UTC(),
		PlanCount:     len(compSet.All()),
		ComparisonSet: compSet,
	}
	if cheapest := compSet.Cheapest(); cheapest != nil {
		doc.CheapestPlanID = cheapest.PlanID
	}

	var data []byte
	var err error
	if jf.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
