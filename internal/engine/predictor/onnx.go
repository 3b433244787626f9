package predictor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Only the first call has
// any effect; later calls return the first call's result.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXOptions configures an ONNX session.
type ONNXOptions struct {
	// LibPath is the ONNX Runtime shared library. Empty means
	// libonnxruntime.so next to the model file.
	LibPath        string
	IntraOpThreads int
}

// ONNX runs a tabular regression model exported to ONNX (for example with
// skl2onnx): one float input [batch, width] and a first output of shape
// [batch] or [batch, 1].
type ONNX struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	outputRank int
	width      int
}

// NewONNX loads the model and validates its tensor shapes against width.
func NewONNX(modelPath string, width int, opts ONNXOptions) (*ONNX, error) {
	libPath := opts.LibPath
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
	inputName, err := validateInput(inputs, width)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	out := outputs[0]
	rank := len(out.Dimensions)
	if rank != 1 && !(rank == 2 && (out.Dimensions[1] == 1 || out.Dimensions[1] == -1)) {
		return nil, fmt.Errorf("onnx: expected output shape [batch] or [batch, 1], got %v", out.Dimensions)
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer so.Destroy()
	if opts.IntraOpThreads > 0 {
		so.SetIntraOpNumThreads(opts.IntraOpThreads)
	}
	so.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputName}, []string{out.Name}, so)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputName:  inputName,
		outputName: out.Name,
		outputRank: rank,
		width:      width,
	}, nil
}

// validateInput checks for a single 2-D float input whose feature dimension
// matches width (or is dynamic).
func validateInput(inputs []ort.InputOutputInfo, width int) (string, error) {
	if len(inputs) != 1 {
		return "", fmt.Errorf("onnx: expected exactly one input tensor, got %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return "", fmt.Errorf("onnx: input %q must be float32, got %v", in.Name, in.DataType)
	}
	if len(in.Dimensions) != 2 {
		return "", fmt.Errorf("onnx: expected 2D input tensor, got %v", in.Dimensions)
	}
	if d := in.Dimensions[1]; d != -1 && d != int64(width) {
		return "", fmt.Errorf("onnx: model takes %d features, feature order declares %d", d, width)
	}
	return in.Name, nil
}

// Predict runs one inference call over all rows.
func (o *ONNX) Predict(ctx context.Context, rows [][]float32) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := int64(len(rows))
	flat := make([]float32, 0, len(rows)*o.width)
	for _, r := range rows {
		if err := checkWidth(o.width, r); err != nil {
			return nil, err
		}
		flat = append(flat, r...)
	}

	tIn, err := ort.NewTensor(ort.NewShape(n, int64(o.width)), flat)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create %s tensor: %w", o.inputName, err)
	}
	defer tIn.Destroy()

	outShape := ort.NewShape(n)
	if o.outputRank == 2 {
		outShape = ort.NewShape(n, 1)
	}
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := o.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	src := tOut.GetData()
	result := make([]float64, len(src))
	for i, v := range src {
		result[i] = float64(v)
	}
	return result, nil
}

// Width returns the number of input features.
func (o *ONNX) Width() int {
	return o.width
}

// Close releases the ONNX session resources.
func (o *ONNX) Close() error {
	return o.session.Destroy()
}
