// Package classifier defines the inference capability the moderation and
// analysis engines depend on, and the label-space checks applied to every
// model response.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"discord-modbot/models"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnavailable wraps any failure to obtain a prediction from a model.
	ErrUnavailable = errors.New("classifier unavailable")
	// ErrLabelOutOfRange means a model answered outside its label set. This is an
	// integration error, not a transient one.
	ErrLabelOutOfRange = errors.New("classifier label out of range")
)

// Classifier returns a label and a confidence for a piece of text.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ClassificationResult, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, text string) (models.ClassificationResult, error)

func (f Func) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	return f(ctx, text)
}

// indexLabel matches raw model outputs such as "LABEL_2" or "2".
var indexLabel = regexp.MustCompile(`^(?i:label_)?(\d+)$`)

func call(ctx context.Context, c Classifier, task, text string) (models.ClassificationResult, error) {
	res, err := c.Classify(ctx, text)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, task, err)
	}
	if math.IsNaN(res.Confidence) || res.Confidence < 0 || res.Confidence > 1 {
		return models.ClassificationResult{}, fmt.Errorf("%w: %s confidence %v outside [0,1]", ErrLabelOutOfRange, task, res.Confidence)
	}
	return res, nil
}

func labelIndex(label string) (int, bool) {
	m := indexLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, false
	}
	i, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return i, true
}

// Topic classifies text into one of the four topic labels.
type Topic struct {
	model Classifier
}

func NewTopic(model Classifier) *Topic {
	return &Topic{model: model}
}

// Classify returns the canonical topic label and the model confidence.
func (t *Topic) Classify(ctx context.Context, text string) (models.TopicLabel, float64, error) {
	res, err := call(ctx, t.model, "topic", text)
	if err != nil {
		return "", 0, err
	}
	if label, err := models.ParseTopic(res.Label); err == nil {
		return label, res.Confidence, nil
	}
	if i, ok := labelIndex(res.Label); ok {
		if label, ok := models.TopicByIndex(i); ok {
			return label, res.Confidence, nil
		}
	}
	return "", 0, fmt.Errorf("%w: topic model returned %q", ErrLabelOutOfRange, res.Label)
}

// Sentiment classifies text into one of the three sentiment labels.
type Sentiment struct {
	model Classifier
}

func NewSentiment(model Classifier) *Sentiment {
	return &Sentiment{model: model}
}

// Classify returns a result whose label is always a canonical SentimentLabel.
func (s *Sentiment) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	res, err := call(ctx, s.model, "sentiment", text)
	if err != nil {
		return models.ClassificationResult{}, err
	}
	label, ok := models.ParseSentiment(res.Label)
	if !ok {
		if i, isIndex := labelIndex(res.Label); isIndex {
			label, ok = models.SentimentByIndex(i)
		}
	}
	if !ok {
		return models.ClassificationResult{}, fmt.Errorf("%w: sentiment model returned %q", ErrLabelOutOfRange, res.Label)
	}
	return models.ClassificationResult{Label: string(label), Confidence: res.Confidence}, nil
}

// ClassifyBatch classifies texts with at most limit calls in flight. The first
// failure cancels the remaining calls and fails the whole batch. Results are
// returned in input order.
func (s *Sentiment) ClassifyBatch(ctx context.Context, texts []string, limit int) ([]models.ClassificationResult, error) {
	results := make([]models.ClassificationResult, len(texts))
	if len(texts) == 0 {
		return results, nil
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			res, err := s.Classify(gctx, text)
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
