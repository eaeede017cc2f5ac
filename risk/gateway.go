package risk

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// LoaderFunc builds a classifier from the artifact at path.
type LoaderFunc func(path string) (Classifier, error)

// Gateway owns the process-wide classifier handle. The first successful load
// is kept for the life of the process; later calls read it without locking.
type Gateway struct {
	path   string
	loader LoaderFunc

	mu  sync.Mutex
	clf atomic.Pointer[Classifier]
}

// NewGateway returns a gateway for the artifact at path. A nil loader means
// LoadArtifact.
func NewGateway(path string, loader LoaderFunc) *Gateway {
	if loader == nil {
		loader = LoadArtifact
	}
	return &Gateway{path: path, loader: loader}
}

// NewStaticGateway wraps an already loaded classifier.
func NewStaticGateway(clf Classifier) *Gateway {
	g := &Gateway{}
	if clf != nil {
		g.clf.Store(&clf)
	}
	return g
}

// Path is the artifact location the gateway loads from.
func (g *Gateway) Path() string { return g.path }

// Load returns the cached classifier, loading it on first use. Failed loads
// are not cached, so a request after a failure tries the disk again.
func (g *Gateway) Load() (Classifier, error) {
	if c := g.clf.Load(); c != nil {
		return *c, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if c := g.clf.Load(); c != nil {
		return *c, nil
	}

	if g.loader == nil {
		return nil, &InferenceError{Op: "load artifact", Err: errors.New("gateway has no classifier")}
	}
	clf, err := g.loader(g.path)
	if err != nil {
		return nil, err
	}
	if clf == nil {
		return nil, &InferenceError{Op: "load artifact", Err: fmt.Errorf("loader returned no classifier for %s", g.path)}
	}
	g.clf.Store(&clf)
	return clf, nil
}

// Loaded reports whether the handle has been initialized.
func (g *Gateway) Loaded() bool {
	return g.clf.Load() != nil
}

// Score returns the probability of the severe class for s. Every call reaches
// the classifier.
func Score(clf Classifier, s Scenario) (float64, error) {
	proba, err := clf.PredictProba([]Row{s.Row()})
	if err != nil {
		return 0, asInference(err)
	}
	if len(proba) != 1 || len(proba[0]) < 2 {
		return 0, &InferenceError{Op: "predict_proba", Err: errors.New("unexpected output shape for one row")}
	}
	p := proba[0][1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, &InferenceError{Op: "predict_proba", Err: fmt.Errorf("probability %v outside [0, 1]", p)}
	}
	return p, nil
}

// ModelVersion extracts the version from classifiers that carry one.
func ModelVersion(clf Classifier) string {
	if v, ok := clf.(interface{ Version() string }); ok {
		return v.Version()
	}
	return ""
}

func asInference(err error) error {
	var ie *InferenceError
	if errors.As(err, &ie) {
		return err
	}
	return &InferenceError{Op: "predict_proba", Err: err}
}
