package classifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/textproc"
)

func writeArtifact(t *testing.T, dir, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// writeTestModels exports a tiny three-task model over a shared vocabulary.
// The weights make the predictions obvious: жалоба drives the complaint and
// formal classes, срочно drives high urgency.
func writeTestModels(t *testing.T, probability bool) string {
	t.Helper()
	dir := t.TempDir()

	vectorizer := vectorizerArtifact{
		Vocabulary: map[string]int{"жалоба": 0, "срочно": 1, "партнерство": 2},
		IDF:        []float64{1, 1, 1},
	}
	for _, task := range []string{"type", "urgency", "tone"} {
		writeArtifact(t, dir, "vectorizer_"+task+".json", vectorizer)
	}

	writeArtifact(t, dir, "classifier_type.json", modelArtifact{
		Classes:      []string{string(domain.TypeComplaint), string(domain.TypePartnership)},
		Coefficients: [][]float64{{5, 0, 0}, {0, 0, 5}},
		Intercepts:   []float64{0, 0},
		Probability:  probability,
	})
	writeArtifact(t, dir, "classifier_urgency.json", modelArtifact{
		Classes:      []string{"high", "low"},
		Coefficients: [][]float64{{0, 5, 0}, {0, 0, 0}},
		Intercepts:   []float64{0, 0},
		Probability:  probability,
	})
	writeArtifact(t, dir, "classifier_tone.json", modelArtifact{
		Classes:      []string{"formal", "business"},
		Coefficients: [][]float64{{5, 0, 0}, {0, 0, 0}},
		Intercepts:   []float64{0, 0},
		Probability:  probability,
	})
	return dir
}

func newTestClassifier(t *testing.T, dir string) *MultiTask {
	t.Helper()
	extractor := textproc.NewExtractor()
	normalizer := textproc.NewNormalizer(extractor, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewMultiTask(dir, normalizer, extractor, logger)
	if err != nil {
		t.Fatalf("NewMultiTask: %v", err)
	}
	return c
}

func TestNewMultiTaskFailsOnMissingArtifacts(t *testing.T) {
	extractor := textproc.NewExtractor()
	normalizer := textproc.NewNormalizer(extractor, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewMultiTask(t.TempDir(), normalizer, extractor, logger)
	if err == nil {
		t.Fatal("expected error for empty models dir")
	}
	if !domain.IsKind(err, domain.ErrClassifierUnavailable) {
		t.Fatalf("expected classifier unavailable kind, got %v", err)
	}
}

func TestNewMultiTaskRejectsInconsistentDimensions(t *testing.T) {
	dir := writeTestModels(t, true)
	writeArtifact(t, dir, "classifier_tone.json", modelArtifact{
		Classes:      []string{"formal", "business"},
		Coefficients: [][]float64{{5, 0}},
		Intercepts:   []float64{0, 0},
		Probability:  true,
	})

	extractor := textproc.NewExtractor()
	normalizer := textproc.NewNormalizer(extractor, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewMultiTask(dir, normalizer, extractor, logger); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestClassifyPredictsThreeTasks(t *testing.T) {
	c := newTestClassifier(t, writeTestModels(t, true))

	result, err := c.Classify(context.Background(), "Срочно направляю жалоба")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Type != domain.TypeComplaint {
		t.Errorf("type = %q, want complaint", result.Type)
	}
	if result.Urgency != domain.UrgencyHigh {
		t.Errorf("urgency = %q, want high", result.Urgency)
	}
	if result.Tone != domain.StyleFormal {
		t.Errorf("tone = %q, want formal", result.Tone)
	}
	if result.Confidence <= 0.5 || result.Confidence > 1 {
		t.Errorf("confidence = %v, want softmax winner above 0.5", result.Confidence)
	}
}

func TestClassifyFallbackConfidenceWithoutProbability(t *testing.T) {
	c := newTestClassifier(t, writeTestModels(t, false))

	result, err := c.Classify(context.Background(), "жалоба")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Confidence != fallbackConfidence {
		t.Errorf("confidence = %v, want %v", result.Confidence, fallbackConfidence)
	}
	if result.UrgencyConfidence != fallbackConfidence || result.ToneConfidence != fallbackConfidence {
		t.Errorf("per-task confidences = %v/%v, want fallback", result.UrgencyConfidence, result.ToneConfidence)
	}
}

func TestClassifyAttachesEntityHints(t *testing.T) {
	c := newTestClassifier(t, writeTestModels(t, true))

	result, err := c.Classify(context.Background(), "жалоба по договору №Д-777 от 01.02.2023")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(result.Entities[domain.EntityContracts]) == 0 {
		t.Errorf("expected contract hint, got %v", result.Entities)
	}
	if len(result.Entities[domain.EntityDates]) == 0 {
		t.Errorf("expected date hint, got %v", result.Entities)
	}
}

func TestClassifyHonorsCanceledContext(t *testing.T) {
	c := newTestClassifier(t, writeTestModels(t, true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Classify(ctx, "жалоба"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestClassifyRedactsPersonalDataBeforePrediction(t *testing.T) {
	// A model whose only feature is a surname token. With redaction in the
	// normalization pass that feature can never fire, so the intercept
	// class must win every task.
	dir := t.TempDir()
	vectorizer := vectorizerArtifact{
		Vocabulary: map[string]int{"иванов": 0},
		IDF:        []float64{1},
	}
	for _, task := range []string{"type", "urgency", "tone"} {
		writeArtifact(t, dir, "vectorizer_"+task+".json", vectorizer)
	}
	writeArtifact(t, dir, "classifier_type.json", modelArtifact{
		Classes:      []string{string(domain.TypeComplaint), string(domain.TypeNotification)},
		Coefficients: [][]float64{{5}, {0}},
		Intercepts:   []float64{0, 1},
		Probability:  true,
	})
	writeArtifact(t, dir, "classifier_urgency.json", modelArtifact{
		Classes:      []string{"high", "low"},
		Coefficients: [][]float64{{5}, {0}},
		Intercepts:   []float64{0, 1},
		Probability:  true,
	})
	writeArtifact(t, dir, "classifier_tone.json", modelArtifact{
		Classes:      []string{"formal", "business"},
		Coefficients: [][]float64{{5}, {0}},
		Intercepts:   []float64{0, 1},
		Probability:  true,
	})
	c := newTestClassifier(t, dir)

	result, err := c.Classify(context.Background(), "Иванов Иван Иванович направил обращение")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Type != domain.TypeNotification {
		t.Errorf("type = %q, surname token must not reach the model", result.Type)
	}
	if result.Urgency != domain.UrgencyLow {
		t.Errorf("urgency = %q, surname token must not reach the model", result.Urgency)
	}
	if result.Tone != domain.StyleBusiness {
		t.Errorf("tone = %q, surname token must not reach the model", result.Tone)
	}
}
