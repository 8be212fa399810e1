package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
)

const (
	DefaultModelPath  = "trained_model.json"
	DefaultScalerPath = "scaler.json"
)

// Artifacts is the loaded classifier and scaler pair. It is never mutated
// after Load returns and may be shared by any number of goroutines.
type Artifacts struct {
	Classifier Classifier
	Scaler     Scaler
	ModelPath  string
	ScalerPath string

	shared bool
}

// Close releases native resources held by the classifier, if any. Artifacts
// loaded through a caller-supplied Cache are owned by that cache and Close is a
// no-op; close the cache instead.
func (a *Artifacts) Close() error {
	if a.shared {
		return nil
	}
	if c, ok := a.Classifier.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type LoaderConfig struct {
	ModelPath       string
	ScalerPath      string
	ONNXRuntimePath string
	// Cache lets several loaders share decoded artifacts. Optional. When set,
	// the caller closes it after the last Artifacts from it is done.
	Cache *ArtifactCache
}

// ArtifactCache memoizes loaded artifact pairs and the decoded artifacts they
// are built from, keyed by absolute path.
type ArtifactCache struct {
	entries *lru.Cache[string, any]

	mu      sync.Mutex
	evicted []io.Closer
}

func NewArtifactCache(size int) (*ArtifactCache, error) {
	if size <= 0 {
		size = 8
	}
	c := &ArtifactCache{}
	entries, err := lru.NewWithEvict[string, any](size, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

// onEvict holds on to evicted classifiers; a loaded pair may still be serving
// with them, so they are released by Close.
func (c *ArtifactCache) onEvict(_ string, value any) {
	if _, ok := value.(Classifier); !ok {
		return
	}
	if closer, ok := value.(io.Closer); ok {
		c.mu.Lock()
		c.evicted = append(c.evicted, closer)
		c.mu.Unlock()
	}
}

func (c *ArtifactCache) get(key string) (any, bool) {
	return c.entries.Get(key)
}

func (c *ArtifactCache) add(key string, value any) {
	c.entries.Add(key, value)
}

// Len reports how many entries are cached.
func (c *ArtifactCache) Len() int {
	return c.entries.Len()
}

// Close drops every entry and releases the native resources of all
// classifiers the cache has held.
func (c *ArtifactCache) Close() error {
	c.entries.Purge()

	c.mu.Lock()
	closers := c.evicted
	c.evicted = nil
	c.mu.Unlock()

	var err error
	for _, closer := range closers {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

// Loader loads the artifact pair once and hands out the same instance afterwards.
type Loader struct {
	cfg    LoaderConfig
	shared bool
	mu     sync.Mutex
}

func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if cfg.ModelPath == "" {
		cfg.ModelPath = DefaultModelPath
	}
	if cfg.ScalerPath == "" {
		cfg.ScalerPath = DefaultScalerPath
	}
	shared := cfg.Cache != nil
	if !shared {
		// pair, classifier, scaler
		cache, err := NewArtifactCache(3)
		if err != nil {
			return nil, err
		}
		cfg.Cache = cache
	}
	return &Loader{cfg: cfg, shared: shared}, nil
}

// Load returns the cached artifacts, reading them from disk on first use.
// A failed Load leaves nothing cached.
func (l *Loader) Load() (*Artifacts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	modelPath, modelErr := absPath(l.cfg.ModelPath)
	scalerPath, scalerErr := absPath(l.cfg.ScalerPath)
	if err := multierr.Combine(modelErr, scalerErr); err != nil {
		return nil, &ArtifactLoadError{Err: err}
	}

	pairKey := cacheKey("artifacts", modelPath+"|"+scalerPath)
	if cached, ok := l.cfg.Cache.get(pairKey); ok {
		if a, ok := cached.(*Artifacts); ok {
			return a, nil
		}
	}

	classifier, classifierCached, modelErr := l.classifier(modelPath)
	scaler, scalerCached, scalerErr := l.scaler(scalerPath)
	if err := multierr.Combine(modelErr, scalerErr); err != nil {
		if classifier != nil && !classifierCached {
			closeArtifact(classifier)
		}
		return nil, asLoadError(err)
	}

	artifacts := &Artifacts{
		Classifier: classifier,
		Scaler:     scaler,
		ModelPath:  modelPath,
		ScalerPath: scalerPath,
		shared:     l.shared,
	}
	if err := VerifyFeatureOrder(artifacts); err != nil {
		if !classifierCached {
			closeArtifact(classifier)
		}
		return nil, asLoadError(err)
	}

	if !classifierCached {
		l.cfg.Cache.add(cacheKey("classifier", modelPath), classifier)
	}
	if !scalerCached {
		l.cfg.Cache.add(cacheKey("scaler", scalerPath), scaler)
	}
	l.cfg.Cache.add(pairKey, artifacts)
	return artifacts, nil
}

func (l *Loader) classifier(path string) (Classifier, bool, error) {
	if cached, ok := l.cfg.Cache.get(cacheKey("classifier", path)); ok {
		if c, ok := cached.(Classifier); ok {
			return c, true, nil
		}
	}
	c, err := DecodeClassifier(path, l.cfg.ONNXRuntimePath)
	if err != nil {
		return nil, false, &ArtifactLoadError{Path: path, Err: err}
	}
	return c, false, nil
}

func (l *Loader) scaler(path string) (Scaler, bool, error) {
	if cached, ok := l.cfg.Cache.get(cacheKey("scaler", path)); ok {
		if s, ok := cached.(Scaler); ok {
			return s, true, nil
		}
	}
	s, err := DecodeScaler(path)
	if err != nil {
		return nil, false, &ArtifactLoadError{Path: path, Err: err}
	}
	return s, false, nil
}

type envelope struct {
	Type string `json:"type"`
}

type validator interface {
	validate() error
}

// DecodeScaler reads a JSON scaler artifact.
func DecodeScaler(path string) (Scaler, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("corrupt artifact: %w", err)
	}

	var scaler interface {
		Scaler
		validator
	}
	switch env.Type {
	case "standard_scaler":
		scaler = &StandardScaler{}
	case "minmax_scaler":
		scaler = &MinMaxScaler{}
	case "":
		return nil, errors.New("corrupt artifact: missing type")
	default:
		return nil, fmt.Errorf("unsupported scaler type %q", env.Type)
	}
	if err := json.Unmarshal(payload, scaler); err != nil {
		return nil, fmt.Errorf("corrupt artifact: %w", err)
	}
	if err := scaler.validate(); err != nil {
		return nil, err
	}
	return scaler, nil
}

// DecodeClassifier reads a JSON classifier artifact, or an ONNX model when
// the path ends in .onnx.
func DecodeClassifier(path, onnxRuntimePath string) (Classifier, error) {
	if strings.EqualFold(filepath.Ext(path), ".onnx") {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		return LoadONNXClassifier(path, onnxRuntimePath)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("corrupt artifact: %w", err)
	}

	var classifier interface {
		Classifier
		validator
	}
	switch env.Type {
	case "logistic_regression":
		classifier = &LogisticRegression{}
	case "decision_tree":
		classifier = &DecisionTree{}
	case "random_forest":
		classifier = &RandomForest{}
	case "":
		return nil, errors.New("corrupt artifact: missing type")
	default:
		return nil, fmt.Errorf("unsupported model type %q", env.Type)
	}
	if err := json.Unmarshal(payload, classifier); err != nil {
		return nil, fmt.Errorf("corrupt artifact: %w", err)
	}
	if err := classifier.validate(); err != nil {
		return nil, err
	}
	return classifier, nil
}

// VerifyFeatureOrder compares the training columns recorded in the artifacts
// with FeatureNames. Artifacts that do not record names are accepted.
func VerifyFeatureOrder(a *Artifacts) error {
	expected := FeatureNames()
	check := func(path string, artifact any) error {
		namer, ok := artifact.(FeatureNamer)
		if !ok {
			return nil
		}
		names := namer.FeatureNames()
		if len(names) == 0 {
			return nil
		}
		if len(names) != len(expected) {
			return &ArtifactLoadError{Path: path, Err: fmt.Errorf("%w: artifact has %d features, expected %d", ErrFeatureOrder, len(names), len(expected))}
		}
		for i := range expected {
			if names[i] != expected[i] {
				return &ArtifactLoadError{Path: path, Err: fmt.Errorf("%w: column %d is %q, expected %q", ErrFeatureOrder, i, names[i], expected[i])}
			}
		}
		return nil
	}
	return multierr.Combine(
		check(a.ScalerPath, a.Scaler),
		check(a.ModelPath, a.Classifier),
	)
}

// asLoadError keeps a single *ArtifactLoadError as is and wraps combined ones.
func asLoadError(err error) error {
	if len(multierr.Errors(err)) == 1 {
		var loadErr *ArtifactLoadError
		if errors.As(err, &loadErr) {
			return loadErr
		}
	}
	return &ArtifactLoadError{Err: err}
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ArtifactLoadError{Path: path, Err: err}
	}
	return abs, nil
}

func cacheKey(kind, path string) string {
	return kind + ":" + path
}

func closeArtifact(artifact any) {
	if c, ok := artifact.(io.Closer); ok {
		_ = c.Close()
	}
}
