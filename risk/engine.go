// Package risk estimates the probability that a traffic accident ends in
// severe injury or death and ranks safer time windows for the same trip.
package risk

import "fmt"

// Engine validates, normalizes and scores scenarios against the gateway's
// classifier. It is safe for concurrent use once constructed.
type Engine struct {
	gateway *Gateway
}

func NewEngine(gateway *Gateway) *Engine {
	return &Engine{gateway: gateway}
}

// Estimate scores the selected window and ranks the alternatives. An
// incomplete scenario yields (nil, nil): the caller should prompt for the
// missing fields rather than report a failure.
func (e *Engine) Estimate(raw RawScenario) (*Estimate, error) {
	s, ok := raw.Complete()
	if !ok {
		return nil, nil
	}
	s = Normalize(s)

	clf, err := e.gateway.Load()
	if err != nil {
		return nil, err
	}

	principal, err := Score(clf, s)
	if err != nil {
		return nil, fmt.Errorf("score selected window %s: %w", s.TimeWindow, err)
	}

	alts, err := Rank(clf, s, principal)
	if err != nil {
		return nil, err
	}

	return &Estimate{
		Scenario:     s,
		Risk:         principal,
		Alternatives: alts,
		ModelVersion: ModelVersion(clf),
	}, nil
}

// Score normalizes s and returns its risk without ranking alternatives.
func (e *Engine) Score(s Scenario) (float64, error) {
	clf, err := e.gateway.Load()
	if err != nil {
		return 0, err
	}
	return Score(clf, Normalize(s))
}

// ModelVersion loads the classifier if needed and reports its version.
func (e *Engine) ModelVersion() (string, error) {
	clf, err := e.gateway.Load()
	if err != nil {
		return "", err
	}
	return ModelVersion(clf), nil
}

// VocabularyGaps reports offered values the loaded artifact does not know.
// Classifiers that do not expose their categories report no gaps.
func (e *Engine) VocabularyGaps(v Vocabulary) ([]VocabularyGap, error) {
	clf, err := e.gateway.Load()
	if err != nil {
		return nil, err
	}
	k, ok := clf.(interface{ Known() map[string][]string })
	if !ok || k.Known() == nil {
		return nil, nil
	}
	return CheckVocabulary(v, k.Known()), nil
}
