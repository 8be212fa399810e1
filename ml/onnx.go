package ml

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards the process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXClassifier runs a classifier exported with skl2onnx (zipmap disabled).
type ONNXClassifier struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	width      int64
	classes    int64
}

// LoadONNXClassifier opens modelPath. When libPath is empty the runtime
// library is looked up next to the model.
func LoadONNXClassifier(modelPath, libPath string) (*ONNXClassifier, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input tensor, got %d", len(inputs))
	}
	inDims := inputs[0].Dimensions
	if len(inDims) != 2 || inDims[1] <= 0 {
		return nil, fmt.Errorf("onnx: expected [batch, features] input, got %v", inDims)
	}

	probs, err := probabilityOutput(outputs)
	if err != nil {
		return nil, err
	}
	classes := int64(2)
	if len(probs.Dimensions) == 2 && probs.Dimensions[1] > 0 {
		classes = probs.Dimensions[1]
	}
	if classes != 2 {
		return nil, fmt.Errorf("onnx: expected 2 classes, model has %d", classes)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{probs.Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNXClassifier{
		session:    session,
		inputName:  inputs[0].Name,
		outputName: probs.Name,
		width:      inDims[1],
		classes:    classes,
	}, nil
}

func probabilityOutput(outputs []ort.InputOutputInfo) (ort.InputOutputInfo, error) {
	for _, out := range outputs {
		if out.Name == "probabilities" {
			return out, nil
		}
	}
	for _, out := range outputs {
		if len(out.Dimensions) == 2 {
			return out, nil
		}
	}
	return ort.InputOutputInfo{}, errors.New("onnx: model has no [batch, classes] probability output")
}

func (c *ONNXClassifier) PredictProba(rows [][]float64) ([]float64, error) {
	if err := checkShape(rows, int(c.width)); err != nil {
		return nil, err
	}
	batch := int64(len(rows))
	flat := make([]float32, 0, batch*c.width)
	for _, row := range rows {
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	in, err := ort.NewTensor(ort.NewShape(batch, c.width), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(batch, c.classes))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := c.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	data := out.GetData()
	probs := make([]float64, batch)
	for i := range probs {
		probs[i] = float64(data[int64(i)*c.classes+1])
	}
	return probs, nil
}

func (c *ONNXClassifier) Close() error {
	return c.session.Destroy()
}
