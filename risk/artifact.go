package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// Row is one tabular input keyed by trained column name.
type Row map[string]string

// Classifier estimates class probabilities for rows of named categorical
// columns. Each output vector has one entry per class; index 1 is "severe".
type Classifier interface {
	PredictProba(rows []Row) ([][]float64, error)
}

const (
	unknownIgnore = "ignore"
	unknownError  = "error"
)

// LogisticPipeline is a fitted one-hot encoder followed by a binary logistic
// regression, as exported from the training notebook.
type LogisticPipeline struct {
	SchemaVersion string               `json:"schema_version" msgpack:"schema_version"`
	ModelVersion  string               `json:"model_version" msgpack:"model_version"`
	Columns       []string             `json:"columns" msgpack:"columns"`
	HandleUnknown string               `json:"handle_unknown" msgpack:"handle_unknown"`
	Categories    map[string][]string  `json:"categories" msgpack:"categories"`
	Coefficients  map[string][]float64 `json:"coefficients" msgpack:"coefficients"`
	Intercept     float64              `json:"intercept" msgpack:"intercept"`
	Classes       []int                `json:"classes" msgpack:"classes"`

	index   map[string]map[string]int
	weights *mat.VecDense
}

// LoadArtifact reads a pipeline from path. Files ending in .msgpack or .mpk
// are MessagePack, anything else is JSON.
func LoadArtifact(path string) (Classifier, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ArtifactNotFoundError{Path: path}
	}
	if err != nil {
		return nil, &InferenceError{Op: "read artifact", Err: err}
	}

	var p LogisticPipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		err = msgpack.Unmarshal(b, &p)
	default:
		err = json.Unmarshal(b, &p)
	}
	if err != nil {
		return nil, &InferenceError{Op: "decode artifact", Err: err}
	}

	if err := p.compile(); err != nil {
		return nil, &InferenceError{Op: "validate artifact", Err: err}
	}
	return &p, nil
}

func (p *LogisticPipeline) compile() error {
	if p.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema version %q, want %q", p.SchemaVersion, SchemaVersion)
	}
	if len(p.Columns) != len(Columns) {
		return fmt.Errorf("artifact has %d columns, want %d", len(p.Columns), len(Columns))
	}
	for i, col := range Columns {
		if p.Columns[i] != col {
			return fmt.Errorf("column %d is %q, want %q", i, p.Columns[i], col)
		}
	}
	if len(p.Classes) != 2 || p.Classes[0] != 0 || p.Classes[1] != 1 {
		return fmt.Errorf("classes %v, want [0 1]", p.Classes)
	}
	switch p.HandleUnknown {
	case "":
		p.HandleUnknown = unknownError
	case unknownIgnore, unknownError:
	default:
		return fmt.Errorf("unsupported handle_unknown %q", p.HandleUnknown)
	}

	p.index = make(map[string]map[string]int, len(p.Columns))
	var w []float64
	for _, col := range p.Columns {
		cats, coefs := p.Categories[col], p.Coefficients[col]
		if len(cats) == 0 {
			return fmt.Errorf("column %q has no categories", col)
		}
		if len(cats) != len(coefs) {
			return fmt.Errorf("column %q: %d categories but %d coefficients", col, len(cats), len(coefs))
		}
		idx := make(map[string]int, len(cats))
		for _, c := range cats {
			if _, dup := idx[c]; dup {
				return fmt.Errorf("column %q: duplicate category %q", col, c)
			}
			idx[c] = len(w) + len(idx)
		}
		p.index[col] = idx
		w = append(w, coefs...)
	}
	p.weights = mat.NewVecDense(len(w), w)
	return nil
}

// PredictProba returns [P(not severe), P(severe)] for every row.
func (p *LogisticPipeline) PredictProba(rows []Row) ([][]float64, error) {
	out := make([][]float64, 0, len(rows))
	for _, row := range rows {
		x, err := p.encode(row)
		if err != nil {
			return nil, &InferenceError{Op: "predict_proba", Err: err}
		}
		z := p.Intercept + mat.Dot(p.weights, x)
		p1 := 1 / (1 + math.Exp(-z))
		out = append(out, []float64{1 - p1, p1})
	}
	return out, nil
}

func (p *LogisticPipeline) encode(row Row) (*mat.VecDense, error) {
	x := mat.NewVecDense(p.weights.Len(), nil)
	for _, col := range p.Columns {
		v, ok := row[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		i, known := p.index[col][v]
		if !known {
			if p.HandleUnknown == unknownIgnore {
				continue
			}
			return nil, fmt.Errorf("found unknown category %q in column %q", v, col)
		}
		x.SetVec(i, 1)
	}
	return x, nil
}

// Version returns the model version stamped at export time.
func (p *LogisticPipeline) Version() string { return p.ModelVersion }

// Known returns the fitted categories per column.
func (p *LogisticPipeline) Known() map[string][]string { return p.Categories }
