package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"conversation-validator-go/internal/embedding"
	"conversation-validator-go/internal/types"
)

// Scorer measures how close a response is to each expected theme.
type Scorer struct {
	svc embedding.Service
}

func NewScorer(svc embedding.Service) *Scorer {
	return &Scorer{svc: svc}
}

// Score returns theme -> cosine similarity clamped to [0,1]. The response is
// embedded once and all themes in a single batched call. Duplicate themes
// share one key.
func (s *Scorer) Score(ctx context.Context, response string, themes []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(themes))
	if len(themes) == 0 {
		return scores, nil
	}

	respVecs, err := s.svc.Encode(ctx, []string{response})
	if err != nil {
		return nil, asServiceFailure(err)
	}
	if len(respVecs) != 1 {
		return nil, asServiceFailure(fmt.Errorf("expected 1 response embedding, got %d", len(respVecs)))
	}

	themeVecs, err := s.svc.Encode(ctx, themes)
	if err != nil {
		return nil, asServiceFailure(err)
	}
	if len(themeVecs) != len(themes) {
		return nil, asServiceFailure(fmt.Errorf("expected %d theme embeddings, got %d", len(themes), len(themeVecs)))
	}

	for i, theme := range themes {
		c, err := Cosine(respVecs[0], themeVecs[i])
		if err != nil {
			return nil, asServiceFailure(err)
		}
		scores[theme] = c
	}
	return scores, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// A zero vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, c)), nil
}

// Mean is the arithmetic mean of the scores, 0 for an empty map.
func Mean(scores map[string]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

func asServiceFailure(err error) error {
	var sf *types.ServiceFailure
	if errors.As(err, &sf) {
		return err
	}
	return &types.ServiceFailure{Service: "embedding", Err: err}
}
