package ml

import "time"

// EpochWindow accumulates per-batch loss/accuracy across one epoch.
type EpochWindow struct {
	samples   int
	batches   int
	lossSum   float64
	accSum    float64
	startedAt time.Time
}

// Record adds one batch's measurements to the window.
func (w *EpochWindow) Record(batchSize int, loss, acc float64) {
	if w.batches == 0 {
		w.startedAt = time.Now()
	}
	w.samples += batchSize
	w.batches++
	w.lossSum += loss
	w.accSum += acc
}

// Snapshot returns the aggregated epoch metrics and resets the window.
type EpochSnapshot struct {
	AvgLoss  float64
	AvgAcc   float64
	Samples  int
	Batches  int
	Duration time.Duration
}

func (w *EpochWindow) Snapshot() EpochSnapshot {
	snap := EpochSnapshot{
		Samples: w.samples,
		Batches: w.batches,
	}
	if w.batches > 0 {
		snap.AvgLoss = w.lossSum / float64(w.batches)
		snap.AvgAcc = w.accSum / float64(w.batches)
		snap.Duration = time.Since(w.startedAt)
	}

	w.samples = 0
	w.batches = 0
	w.lossSum = 0
	w.accSum = 0
	return snap
}
