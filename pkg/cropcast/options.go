package cropcast

import "github.com/crimson-sun/cropcast/internal/engine"

type options struct {
	artifactDir    string
	runtimeLib     string
	intraOpThreads int
	chunkSize      int
	policy         engine.Policy
}

// Option configures a Cropcast instance.
type Option func(*options)

// WithArtifactDir sets the directory holding manifest.yaml, the model, the
// encoder class files, and the feature order. Default: "models".
func WithArtifactDir(dir string) Option {
	return func(o *options) {
		o.artifactDir = dir
	}
}

// WithRuntimeLib sets the ONNX Runtime shared library path. Only used when
// the manifest names an ONNX model.
func WithRuntimeLib(path string) Option {
	return func(o *options) {
		o.runtimeLib = path
	}
}

// WithIntraOpThreads caps ONNX Runtime's per-call thread pool. 0 = runtime default.
func WithIntraOpThreads(n int) Option {
	return func(o *options) {
		o.intraOpThreads = n
	}
}

// WithChunkSize sets how many rows are sent to the model per call. Default: 512.
func WithChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithLenient makes PredictBatch skip rows with unknown labels instead of
// failing the whole batch. Skipped rows are reported in Result.Rejected.
func WithLenient() Option {
	return func(o *options) {
		o.policy = engine.Lenient
	}
}

func defaultOptions() options {
	return options{
		artifactDir: "models",
		policy:      engine.Strict,
	}
}
