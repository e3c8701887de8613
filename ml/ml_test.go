package ml

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"msdgenre/data"
)

// --- Global Variables to prevent compiler optimizations ---
var resultMat *Matrix
var resultLoss float64
var resultAcc float64

// --- 1. Helpers ---

// blobDataset builds a linearly separable two-class problem: class means at
// -2 and +2 per dimension with mild gaussian noise.
func blobDataset(t *testing.T, n, dim int, seed uint64) *data.Dataset {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))

	inputs := make([]float64, n*dim)
	targets := make([]int, n)
	for i := 0; i < n; i++ {
		class := i % 2
		mean := -2.0
		if class == 1 {
			mean = 2.0
		}
		for j := 0; j < dim; j++ {
			inputs[i*dim+j] = mean + rng.NormFloat64()*0.3
		}
		targets[i] = class
	}
	ds, err := data.NewDataset(data.SplitTrain, inputs, targets, dim, 2)
	if err != nil {
		t.Fatalf("blob dataset: %v", err)
	}
	return ds
}

func buildClassifier(dim, hidden, classes int) *NeuralNetwork {
	return NewNetwork(
		Input(dim),
		Dense(hidden),
		Dense(classes, Activation("softmax")),
	)
}

// --- 2. Forward Pass ---

func TestForwardSoftmaxRowsSumToOne(t *testing.T) {
	nn := buildClassifier(4, 8, 3)
	nn.InitializeBuffers(5)

	inputs := make([]float64, 5*4)
	for i := range inputs {
		inputs[i] = rand.Float64()*2 - 1
	}
	nn.Forward(NewMatrixFromSlice(5, 4, inputs))

	out := nn.Layers[len(nn.Layers)-1].A
	if out.rows != 5 || out.cols != 3 {
		t.Fatalf("output shape [%d, %d], want [5, 3]", out.rows, out.cols)
	}
	for i := 0; i < out.rows; i++ {
		sum := 0.0
		for _, p := range out.Row(i) {
			if p < 0 || p > 1 {
				t.Fatalf("probability %g outside [0,1]", p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d sums to %g", i, sum)
		}
	}
}

func TestPredictReturnsArgmax(t *testing.T) {
	nn := buildClassifier(3, 4, 2)

	probs := nn.PredictProbs([]float64{0.1, -0.2, 0.3}, 1)
	if len(probs) != 2 {
		t.Fatalf("got %d probs, want 2", len(probs))
	}

	class, conf := nn.Predict([]float64{0.1, -0.2, 0.3})
	want := 0
	if probs[1] > probs[0] {
		want = 1
	}
	if class != want {
		t.Fatalf("Predict chose %d, argmax is %d", class, want)
	}
	if conf != probs[want] {
		t.Fatalf("confidence %g != probability %g", conf, probs[want])
	}
}

// --- 3. Gradients ---

// Numerical gradient check on a tiny network: nudge one weight, compare the
// loss delta against the analytic gradient.
func TestComputeGradientsNumericalCheck(t *testing.T) {
	nn := buildClassifier(2, 3, 2)
	nn.InitializeBuffers(4)
	grads := initializeMasterGradients(nn)

	inputs := []float64{0.5, -1, 1.2, 0.3, -0.7, 0.9, 0.1, -0.4}
	labels := []int{0, 1, 1, 0}
	oneHot, err := data.OneHot(labels, 2)
	if err != nil {
		t.Fatal(err)
	}
	input := NewMatrixFromSlice(4, 2, inputs)

	nn.Forward(input)
	nn.ComputeGradients(input, oneHot, labels, grads)

	lossAt := func() float64 {
		nn.Forward(input)
		loss, _ := nn.LossAndAccuracy(labels)
		return loss
	}

	const eps = 1e-6
	for l, layer := range nn.Layers {
		for _, k := range []int{0, len(layer.Weights.data) / 2} {
			orig := layer.Weights.data[k]
			layer.Weights.data[k] = orig + eps
			up := lossAt()
			layer.Weights.data[k] = orig - eps
			down := lossAt()
			layer.Weights.data[k] = orig

			numeric := (up - down) / (2 * eps)
			analytic := grads[l].dW.data[k]
			if math.Abs(numeric-analytic) > 1e-4 {
				t.Fatalf("layer %d weight %d: numeric %g vs analytic %g", l, k, numeric, analytic)
			}
		}
	}
}

// --- 4. Training ---

func TestTrainConvergesOnSeparableBlobs(t *testing.T) {
	ds := blobDataset(t, 200, 4, 11)
	provider, err := data.NewBatchProvider(ds, 20, data.WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}

	nn := buildClassifier(4, 16, 2)
	cfg := TrainingConfig{
		Epochs:       30,
		LearningRate: 0.01,
		Optimizer:    OptAdam,
		NumWorkers:   1,
		VerboseEvery: 30,
	}
	if err := Train(nn, provider, nil, cfg); err != nil {
		t.Fatalf("Train: %v", err)
	}

	_, acc, err := Evaluate(nn, provider)
	if err != nil {
		t.Fatal(err)
	}
	if acc < 0.95 {
		t.Fatalf("accuracy %.2f after training, want >= 0.95", acc)
	}
}

func TestTrainWithWorkersMatchesContract(t *testing.T) {
	ds := blobDataset(t, 120, 3, 21)
	provider, err := data.NewBatchProvider(ds, 24, data.WithSeed(9))
	if err != nil {
		t.Fatal(err)
	}

	nn := buildClassifier(3, 8, 2)
	cfg := TrainingConfig{
		Epochs:       15,
		LearningRate: 0.05,
		Optimizer:    OptSGD,
		NumWorkers:   4, // 24 % 4 == 0, so the batch splits evenly
		VerboseEvery: 15,
	}
	if err := Train(nn, provider, nil, cfg); err != nil {
		t.Fatalf("Train: %v", err)
	}

	_, acc, err := Evaluate(nn, provider)
	if err != nil {
		t.Fatal(err)
	}
	if acc < 0.9 {
		t.Fatalf("accuracy %.2f with 4 workers, want >= 0.9", acc)
	}
}

func TestEvaluateCoversShortFinalBatch(t *testing.T) {
	ds := blobDataset(t, 50, 2, 31)
	provider, err := data.NewBatchProvider(ds, 16,
		data.WithoutShuffle(), data.WithShortFinalBatch())
	if err != nil {
		t.Fatal(err)
	}

	nn := buildClassifier(2, 4, 2)
	loss, acc, err := Evaluate(nn, provider)
	if err != nil {
		t.Fatal(err)
	}
	if loss <= 0 {
		t.Fatalf("loss %g, want > 0 for an untrained network", loss)
	}
	if acc < 0 || acc > 1 {
		t.Fatalf("accuracy %g outside [0,1]", acc)
	}
}

// --- 5. Persistence ---

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	nn := buildClassifier(3, 5, 2)
	if err := nn.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	clone := buildClassifier(3, 5, 2)
	if err := clone.LoadFromFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	for l := range nn.Layers {
		for k, v := range nn.Layers[l].Weights.data {
			if clone.Layers[l].Weights.data[k] != v {
				t.Fatalf("layer %d weight %d differs after reload", l, k)
			}
		}
	}
}

func TestLoadRejectsShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.gob")

	nn := buildClassifier(3, 5, 2)
	if err := nn.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := buildClassifier(3, 9, 2)
	if err := other.LoadFromFile(path); err == nil {
		t.Fatal("expected shape mismatch error, got nil")
	}
}

// --- 6. Benchmarks ---

func BenchmarkActivation_FuncPtr(b *testing.B) {
	m := NewMatrix(1000, 1000)
	m.Randomize()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		// Overhead of going through a function pointer
		m.ApplyFunc(Relu)
	}
}

func BenchmarkActivation_HardcodedLoop(b *testing.B) {
	m := NewMatrix(1000, 1000)
	m.Randomize()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		m.ApplyRelu()
	}
}

func benchmarkForward(b *testing.B, batchSize int) {
	nn := buildClassifier(90, 200, 25)
	nn.InitializeBuffers(batchSize)

	inputs := make([]float64, batchSize*90)
	for i := range inputs {
		inputs[i] = rand.Float64()
	}
	input := NewMatrixFromSlice(batchSize, 90, inputs)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		nn.Forward(input)
	}
	resultMat = nn.Layers[len(nn.Layers)-1].A
}

func BenchmarkForward_Batch_1(b *testing.B)   { benchmarkForward(b, 1) }
func BenchmarkForward_Batch_50(b *testing.B)  { benchmarkForward(b, 50) }
func BenchmarkForward_Batch_200(b *testing.B) { benchmarkForward(b, 200) }

func benchmarkTrainStep(b *testing.B, optType OptimizerType) {
	batchSize := 50
	nn := buildClassifier(90, 200, 25)
	nn.InitializeBuffers(batchSize)
	grads := initializeMasterGradients(nn)

	inputs := make([]float64, batchSize*90)
	for i := range inputs {
		inputs[i] = rand.Float64()
	}
	input := NewMatrixFromSlice(batchSize, 90, inputs)

	labels := make([]int, batchSize)
	for i := range labels {
		labels[i] = rand.IntN(25)
	}
	oneHot, _ := data.OneHot(labels, 25)

	cfg := TrainingConfig{LearningRate: 0.01, Optimizer: optType}
	optimizer := NewOptimizer(nn, cfg)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		nn.Forward(input)
		loss, acc := nn.ComputeGradients(input, oneHot, labels, grads)
		optimizer.Update(nn, grads)
		resultLoss = loss
		resultAcc = acc
	}
}

func BenchmarkTrainStep_SGD_50(b *testing.B)      { benchmarkTrainStep(b, OptSGD) }
func BenchmarkTrainStep_Momentum_50(b *testing.B) { benchmarkTrainStep(b, OptMomentum) }
func BenchmarkTrainStep_Adam_50(b *testing.B)     { benchmarkTrainStep(b, OptAdam) }
