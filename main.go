package main

import (
	"flag"
	"fmt"
	"log"

	"msdgenre/config"
	"msdgenre/data"
	"msdgenre/ml"
)

// -------- MAIN -------- //
// Genre classification over fixed-length Million Song Dataset features:
// load split archives, train a two-layer softmax classifier fed by the
// batch provider, then write the competition submission from the test
// split's predicted probabilities.
func main() {
	cfgPath := flag.String("config", "configs/msd.yaml", "Path to YAML config")
	dataDir := flag.String("data-dir", "", "Override dataset directory")
	submission := flag.String("submission", "", "Override submission output path")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	numWorkers := flag.Int("num-workers", 0, "Number of compute workers")
	seed := flag.Int64("seed", 0, "Provider PRNG seed")
	overwrite := flag.Bool("overwrite", false, "Overwrite an existing submission file")

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		DataDir:    *dataDir,
		Submission: *submission,
		Epochs:     *epochs,
		BatchSize:  *batchSize,
		NumWorkers: *numWorkers,
		Seed:       *seed,
		Overwrite:  *overwrite,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// 1. Load Data
	fmt.Println("Loading dataset...")
	train, err := data.LoadSplit(cfg.DataDir, data.SplitTrain)
	if err != nil {
		log.Fatalf("load train split: %v", err)
	}
	valid, err := data.LoadSplit(cfg.DataDir, data.SplitValid)
	if err != nil {
		log.Fatalf("load valid split: %v", err)
	}
	test, err := data.LoadSplit(cfg.DataDir, data.SplitTest)
	if err != nil {
		log.Fatalf("load test split: %v", err)
	}
	fmt.Printf("Loaded splits: train=%d valid=%d test=%d (%d features, %d classes)\n",
		train.Rows, valid.Rows, test.Rows, train.Cols, train.NumClasses)

	// 2. Build Providers
	trainOpts := []data.ProviderOption{data.WithSeed(cfg.Seed)}
	if cfg.NoShuffle {
		trainOpts = append(trainOpts, data.WithoutShuffle())
	}
	if cfg.ShortBatches {
		trainOpts = append(trainOpts, data.WithShortFinalBatch())
	}
	trainProv, err := data.NewBatchProvider(train, cfg.BatchSize, trainOpts...)
	if err != nil {
		log.Fatalf("train provider: %v", err)
	}
	// Validation and test keep original order; test emits a short final
	// batch so every row gets a prediction.
	validProv, err := data.NewBatchProvider(valid, cfg.BatchSize,
		data.WithoutShuffle(), data.WithShortFinalBatch())
	if err != nil {
		log.Fatalf("valid provider: %v", err)
	}
	testProv, err := data.NewBatchProvider(test, cfg.BatchSize,
		data.WithoutShuffle(), data.WithShortFinalBatch())
	if err != nil {
		log.Fatalf("test provider: %v", err)
	}

	// 3. Initialize Network
	nw := ml.NewNetwork(
		ml.Input(train.Cols),
		ml.Dense(cfg.HiddenSize),
		ml.Dense(train.NumClasses, ml.Activation("softmax")),
	)

	// 4. Configure & Train
	trainCfg := ml.TrainingConfig{
		Epochs:       cfg.Epochs,
		LearningRate: cfg.LearningRate,
		ModelPath:    cfg.ModelPath,
		NumWorkers:   cfg.NumWorkers,
		Optimizer:    ml.OptimizerType(cfg.Optimizer),
		VerboseEvery: cfg.VerboseEvery,
	}
	fmt.Printf("Running %d workers (Mini-Batch = %d, %d batches/epoch)\n\n",
		cfg.NumWorkers, cfg.BatchSize, trainProv.NumBatches())
	if err := ml.Train(nw, trainProv, validProv, trainCfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}

	// 5. Predict & Write Submission
	probs := make([]float64, 0, test.Rows*test.NumClasses)
	for {
		batch, err := testProv.NextBatch()
		if data.IsEndOfPass(err) {
			break
		}
		if err != nil {
			log.Fatalf("test provider: %v", err)
		}
		probs = append(probs, nw.PredictProbs(batch.Inputs, batch.Size)...)
	}
	if err := data.WriteSubmission(cfg.Submission, probs, test.Rows, test.NumClasses, cfg.Overwrite); err != nil {
		log.Fatalf("write submission: %v", err)
	}
	fmt.Println("Submission written to", cfg.Submission)
}
