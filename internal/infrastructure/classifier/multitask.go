package classifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
	"github.com/KiritoZik/psb-AI-backend/internal/core/ports"
	"github.com/KiritoZik/psb-AI-backend/internal/infrastructure/textproc"
)

const (
	taskType    = "type"
	taskUrgency = "urgency"
	taskTone    = "tone"
)

// MultiTask predicts letter type, urgency and tone with three independent
// linear heads sharing one normalization pass. Models are loaded once at
// startup; prediction itself cannot fail.
type MultiTask struct {
	normalizer *textproc.Normalizer
	extractor  *textproc.Extractor
	flags      textproc.Flags
	tasks      map[string]*taskModel
	logger     *slog.Logger
}

var _ ports.LetterClassifier = (*MultiTask)(nil)

func NewMultiTask(modelsDir string, normalizer *textproc.Normalizer, extractor *textproc.Extractor, logger *slog.Logger) (*MultiTask, error) {
	tasks := make(map[string]*taskModel, 3)
	for _, task := range []string{taskType, taskUrgency, taskTone} {
		m, err := loadTask(modelsDir, task)
		if err != nil {
			return nil, domain.WrapError(domain.ErrClassifierUnavailable, "load classifier artifacts", err)
		}
		tasks[task] = m
	}
	// Models are trained on redacted text, so inference must redact too.
	return &MultiTask{
		normalizer: normalizer,
		extractor:  extractor,
		flags:      textproc.DefaultFlags(),
		tasks:      tasks,
		logger:     logger,
	}, nil
}

type taskPrediction struct {
	label      string
	confidence float64
}

func (c *MultiTask) Classify(ctx context.Context, text string) (domain.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrClassifierUnavailable, "classify letter", err)
	}

	normalized := c.normalizer.Normalize(text, c.flags)

	predictions := make(map[string]taskPrediction, len(c.tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for task, model := range c.tasks {
		wg.Add(1)
		go func(task string, model *taskModel) {
			defer wg.Done()
			label, confidence := model.predict(normalized)
			mu.Lock()
			predictions[task] = taskPrediction{label: label, confidence: confidence}
			mu.Unlock()
		}(task, model)
	}
	wg.Wait()

	typePred := predictions[taskType]
	urgencyPred := predictions[taskUrgency]
	tonePred := predictions[taskTone]

	result := domain.ClassificationResult{
		Type:              domain.ParseLetterType(typePred.label),
		Confidence:        typePred.confidence,
		Urgency:           parseUrgency(urgencyPred.label),
		UrgencyConfidence: urgencyPred.confidence,
		Tone:              parseTone(tonePred.label),
		ToneConfidence:    tonePred.confidence,
		Entities:          c.extractor.Entities(text),
	}

	c.logger.DebugContext(ctx, "letter classified",
		slog.String("type", string(result.Type)),
		slog.Float64("confidence", result.Confidence),
		slog.String("urgency", string(result.Urgency)),
		slog.String("tone", string(result.Tone)),
	)
	return result, nil
}

func parseUrgency(raw string) domain.LetterUrgency {
	u, err := domain.ParseLetterUrgency(raw)
	if err != nil {
		return domain.UrgencyMedium
	}
	return u
}

func parseTone(raw string) domain.LetterStyle {
	switch domain.LetterStyle(raw) {
	case domain.StyleFormal, domain.StyleBusiness, domain.StyleInformal, domain.StyleCasual:
		return domain.LetterStyle(raw)
	default:
		return domain.StyleBusiness
	}
}
