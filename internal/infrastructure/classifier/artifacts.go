package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// vectorizerArtifact mirrors the exported tf-idf vocabulary of a task model.
type vectorizerArtifact struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// modelArtifact mirrors the exported linear model of a task.
type modelArtifact struct {
	Classes      []string    `json:"classes"`
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
	Probability  bool        `json:"probability"`
}

// taskModel is one loaded task head: tf-idf vectorizer plus linear classifier.
type taskModel struct {
	vocabulary  map[string]int
	idf         []float64
	classes     []string
	coef        [][]float64
	intercepts  []float64
	probability bool
}

const fallbackConfidence = 0.8

func loadTask(dir, task string) (*taskModel, error) {
	var vec vectorizerArtifact
	if err := readArtifact(filepath.Join(dir, "vectorizer_"+task+".json"), &vec); err != nil {
		return nil, err
	}
	var mdl modelArtifact
	if err := readArtifact(filepath.Join(dir, "classifier_"+task+".json"), &mdl); err != nil {
		return nil, err
	}

	if len(vec.Vocabulary) == 0 {
		return nil, fmt.Errorf("task %s: empty vocabulary", task)
	}
	if len(vec.IDF) != len(vec.Vocabulary) {
		return nil, fmt.Errorf("task %s: idf size %d does not match vocabulary size %d", task, len(vec.IDF), len(vec.Vocabulary))
	}
	if len(mdl.Classes) == 0 {
		return nil, fmt.Errorf("task %s: no classes", task)
	}
	if len(mdl.Coefficients) != len(mdl.Classes) || len(mdl.Intercepts) != len(mdl.Classes) {
		return nil, fmt.Errorf("task %s: coefficient rows %d, intercepts %d for %d classes", task, len(mdl.Coefficients), len(mdl.Intercepts), len(mdl.Classes))
	}
	for i, row := range mdl.Coefficients {
		if len(row) != len(vec.Vocabulary) {
			return nil, fmt.Errorf("task %s: coefficient row %d has %d features, vocabulary has %d", task, i, len(row), len(vec.Vocabulary))
		}
	}

	return &taskModel{
		vocabulary:  vec.Vocabulary,
		idf:         vec.IDF,
		classes:     mdl.Classes,
		coef:        mdl.Coefficients,
		intercepts:  mdl.Intercepts,
		probability: mdl.Probability,
	}, nil
}

func readArtifact(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// vectorize builds the l2-normalized tf-idf vector of normalized text.
// The result is sparse: only features present in the text are returned.
func (m *taskModel) vectorize(normalized string) map[int]float64 {
	counts := make(map[int]int)
	for _, token := range strings.Fields(normalized) {
		if idx, ok := m.vocabulary[token]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	features := make(map[int]float64, len(counts))
	var sumSquares float64
	for idx, tf := range counts {
		v := float64(tf) * m.idf[idx]
		features[idx] = v
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return nil
	}
	for idx := range features {
		features[idx] /= norm
	}
	return features
}

// predict returns the winning class label and its confidence. Confidence is
// the softmax probability of the winner when the model was exported with
// probability support and a fixed fallback otherwise.
func (m *taskModel) predict(normalized string) (string, float64) {
	features := m.vectorize(normalized)

	scores := make([]float64, len(m.classes))
	for i := range m.classes {
		score := m.intercepts[i]
		row := m.coef[i]
		for idx, v := range features {
			score += row[idx] * v
		}
		scores[i] = score
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	confidence := fallbackConfidence
	if m.probability {
		confidence = softmax(scores)[best]
	}
	return m.classes[best], confidence
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
