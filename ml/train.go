package ml

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gonum.org/v1/gonum/floats"

	"msdgenre/data"
)

type TrainingConfig struct {
	Epochs       int
	LearningRate float64
	ModelPath    string
	NumWorkers   int
	VerboseEvery int // How often to log progress (in epochs)

	// Optimizer Selection
	Optimizer OptimizerType

	// Optimizer Hyperparameters (Zero values will use defaults)
	MomentumMu float64 // For Momentum (usually 0.9)
	AdamBeta1  float64 // For Adam (usually 0.9)
	AdamBeta2  float64 // For Adam (usually 0.999)
	AdamEps    float64 // For Adam (usually 1e-8)
}

// Train runs the epoch loop against a batch provider. The provider signals
// each epoch boundary with data.ErrEndOfPass and restarts itself, so the
// loop just keeps pulling batches and counts boundaries. Full batches are
// split across NumWorkers compute goroutines (each worker owns cloned
// activation buffers; only this goroutine ever touches the provider);
// short final batches run on the master network directly.
//
// valid may be nil; when present it is evaluated at every verbose epoch.
func Train(nw *NeuralNetwork, train *data.BatchProvider, valid *data.BatchProvider, cfg TrainingConfig) error {
	fmt.Printf("TrainingConfig: %+v\n", cfg)

	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	if cfg.VerboseEvery <= 0 {
		cfg.VerboseEvery = 1
	}
	batchSize := train.BatchSize()
	if batchSize%cfg.NumWorkers != 0 {
		// Uneven splits are not worth the bookkeeping; fall back to one worker.
		cfg.NumWorkers = 1
	}
	localBatchSize := batchSize / cfg.NumWorkers
	inputDim := nw.Layers[0].Weights.rows
	numClasses := nw.Layers[len(nw.Layers)-1].Weights.cols

	// 1. Setup & Allocation
	optimizer := NewOptimizer(nw, cfg)
	nw.InitializeBuffers(batchSize)
	var workers []*NeuralNetwork
	var workerGrads [][]GradientSet
	if cfg.NumWorkers > 1 {
		workers, workerGrads = initializeWorkers(nw, cfg.NumWorkers, localBatchSize)
	}
	finalGrads := initializeMasterGradients(nw)
	masterGrads := initializeMasterGradients(nw) // for short-batch fallback
	workerLosses := make([]float64, cfg.NumWorkers)
	workerAccs := make([]float64, cfg.NumWorkers)

	if cfg.ModelPath != "" {
		setupSignalHandler(nw, cfg.ModelPath)
	}

	// 2. Training Loop
	start := time.Now()
	fmt.Println("Starting Training...")

	var window EpochWindow
	for epoch := 1; epoch <= cfg.Epochs; {
		batch, err := train.NextBatch()
		if data.IsEndOfPass(err) {
			// Epoch boundary: the provider has already reshuffled itself.
			snap := window.Snapshot()
			if epoch%cfg.VerboseEvery == 0 || epoch == 1 {
				logEpoch(epoch, snap, start)
				if valid != nil {
					vLoss, vAcc, vErr := Evaluate(nw, valid)
					if vErr != nil {
						return vErr
					}
					fmt.Printf("          Valid Loss: %.4f | Valid Acc: %.2f%%\n", vLoss, vAcc*100)
				}
			}
			epoch++
			continue
		}
		if err != nil {
			return err
		}

		if batch.Size == batchSize && cfg.NumWorkers > 1 {
			// --- A. Data Parallelism: Dispatch Workers ---
			var wg sync.WaitGroup
			wg.Add(cfg.NumWorkers)
			for i := 0; i < cfg.NumWorkers; i++ {
				go func(id int) {
					defer wg.Done()
					lo := id * localBatchSize
					hi := lo + localBatchSize

					input := NewMatrixFromSlice(localBatchSize, inputDim, batch.Inputs[lo*inputDim:hi*inputDim])
					oneHot := batch.Targets[lo*numClasses : hi*numClasses]
					labels := batch.Labels[lo:hi]

					workers[id].Forward(input)
					loss, acc := workers[id].ComputeGradients(input, oneHot, labels, workerGrads[id])

					workerLosses[id] = loss
					workerAccs[id] = acc
				}(i)
			}
			wg.Wait()

			// --- B. Aggregation Logic ---
			scale := 1.0 / float64(cfg.NumWorkers)
			for l := range finalGrads {
				// Initialize with Worker 0, sum the rest, then scale
				copy(finalGrads[l].dW.data, workerGrads[0][l].dW.data)
				copy(finalGrads[l].db.data, workerGrads[0][l].db.data)
				for w := 1; w < cfg.NumWorkers; w++ {
					floats.Add(finalGrads[l].dW.data, workerGrads[w][l].dW.data)
					floats.Add(finalGrads[l].db.data, workerGrads[w][l].db.data)
				}
				floats.Scale(scale, finalGrads[l].dW.data)
				floats.Scale(scale, finalGrads[l].db.data)
			}

			// --- C. Optimization & Tracking ---
			optimizer.Update(nw, finalGrads)

			avgLoss, avgAcc := 0.0, 0.0
			for i := range cfg.NumWorkers {
				avgLoss += workerLosses[i] * scale
				avgAcc += workerAccs[i] * scale
			}
			window.Record(batch.Size, avgLoss, avgAcc)
		} else {
			// Short final batch (or single worker): run on the master network.
			input := NewMatrixFromSlice(batch.Size, inputDim, batch.Inputs)
			nw.Forward(input)
			loss, acc := nw.ComputeGradients(input, batch.Targets, batch.Labels, masterGrads)
			optimizer.Update(nw, masterGrads)
			window.Record(batch.Size, loss, acc)
		}
	}

	fmt.Printf("Training Complete. Total Time: %v\n\n", time.Since(start))
	if cfg.ModelPath != "" {
		return nw.SaveToFile(cfg.ModelPath)
	}
	return nil
}

// Evaluate consumes exactly one pass of the provider and returns mean loss
// and accuracy. Works on any split; the provider resets itself afterwards.
func Evaluate(nw *NeuralNetwork, provider *data.BatchProvider) (float64, float64, error) {
	inputDim := nw.Layers[0].Weights.rows

	totalLoss, totalAcc := 0.0, 0.0
	samples := 0
	for {
		batch, err := provider.NextBatch()
		if data.IsEndOfPass(err) {
			break
		}
		if err != nil {
			return 0, 0, err
		}
		input := NewMatrixFromSlice(batch.Size, inputDim, batch.Inputs)
		nw.Forward(input)
		loss, acc := nw.LossAndAccuracy(batch.Labels)
		totalLoss += loss * float64(batch.Size)
		totalAcc += acc * float64(batch.Size)
		samples += batch.Size
	}
	if samples == 0 {
		return 0, 0, nil
	}
	return totalLoss / float64(samples), totalAcc / float64(samples), nil
}

func logEpoch(epoch int, snap EpochSnapshot, start time.Time) {
	fmt.Printf("Epoch %d | Loss: %.4f | Acc: %.2f%% | Batches: %d | Time: %v\n",
		epoch, snap.AvgLoss, snap.AvgAcc*100, snap.Batches, time.Since(start))
}

// initializeWorkers creates clones of the network and allocates gradient memory for each worker
func initializeWorkers(nw *NeuralNetwork, numWorkers, localBatchSize int) ([]*NeuralNetwork, [][]GradientSet) {
	workers := make([]*NeuralNetwork, numWorkers)
	workerGrads := make([][]GradientSet, numWorkers)

	for i := 0; i < numWorkers; i++ {
		workers[i] = nw.CloneStructure()
		workers[i].InitializeBuffers(localBatchSize)
		workerGrads[i] = initializeMasterGradients(nw)
	}
	return workers, workerGrads
}

// initializeMasterGradients allocates one gradient buffer set matching the network shape
func initializeMasterGradients(nw *NeuralNetwork) []GradientSet {
	grads := make([]GradientSet, len(nw.Layers))
	for l := 0; l < len(nw.Layers); l++ {
		grads[l].dW = NewMatrix(nw.Layers[l].Weights.rows, nw.Layers[l].Weights.cols)
		grads[l].db = NewMatrix(nw.Layers[l].Biases.rows, nw.Layers[l].Biases.cols)
	}
	return grads
}

// setupSignalHandler captures SIGINT/SIGTERM to save the model safely
func setupSignalHandler(nw *NeuralNetwork, modelPath string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt! Saving model...")
		nw.SaveToFile(modelPath)
		os.Exit(0)
	}()
}
