package ml

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type NeuralNetwork struct {
	Layers   []*Layer
	InputBuf *Matrix
}

// Neural Network Builder.
// The genre classifier is NewNetwork(Input(D), Dense(H), Dense(C, Activation("softmax"))).
func NewNetwork(configs ...LayerConfig) *NeuralNetwork {
	if len(configs) < 2 {
		panic("Network must have at least Input and one Output layer")
	}
	if !configs[0].IsInput {
		panic("First layer must be Input()")
	}

	nn := &NeuralNetwork{}
	prevOutputSize := configs[0].Neurons

	for i := 1; i < len(configs); i++ {
		cfg := configs[i]

		layer := &Layer{
			Weights: NewMatrix(prevOutputSize, cfg.Neurons),
			Biases:  NewMatrix(1, cfg.Neurons),
			ActType: cfg.Activation,
		}
		layer.Weights.Randomize()

		nn.Layers = append(nn.Layers, layer)
		prevOutputSize = cfg.Neurons
	}

	return nn
}

// -------- NEURAL NETWORK METHODS -------- //

// InitializeBuffers sizes the per-layer Z/A/dZ workspaces for a batch size.
// Call once before training; Forward re-sizes on its own if a differently
// sized batch shows up (e.g. a short final batch at prediction time).
func (nw *NeuralNetwork) InitializeBuffers(batchSize int) {
	inputDim := nw.Layers[0].Weights.rows

	data := make([]float64, batchSize*inputDim)
	nw.InputBuf = &Matrix{
		rows:  batchSize,
		cols:  inputDim,
		data:  data,
		dense: mat.NewDense(batchSize, inputDim, data),
	}

	for _, layer := range nw.Layers {
		outputDim := layer.Weights.cols
		layer.Z = NewMatrix(batchSize, outputDim)
		layer.A = NewMatrix(batchSize, outputDim)
		layer.dZ = NewMatrix(batchSize, outputDim)
	}
}

// CloneStructure shares weights/biases but gives the clone its own
// activation buffers, so data-parallel workers can run forward/backward
// concurrently against the same parameters.
func (nw *NeuralNetwork) CloneStructure() *NeuralNetwork {
	newNN := &NeuralNetwork{
		Layers: make([]*Layer, len(nw.Layers)),
	}
	for i, l := range nw.Layers {
		newNN.Layers[i] = &Layer{
			Weights: l.Weights,
			Biases:  l.Biases,
			ActType: l.ActType,
		}
	}
	return newNN
}

func (nw *NeuralNetwork) Forward(input *Matrix) {
	if nw.Layers[0].Z == nil || nw.Layers[0].Z.rows != input.rows {
		nw.InitializeBuffers(input.rows)
	}

	activation := input
	for _, layer := range nw.Layers {
		MatMul(activation.dense, layer.Weights.dense, layer.Z)
		layer.Z.AddVector(layer.Biases)
		copy(layer.A.data, layer.Z.data)

		switch layer.ActType {
		case ActSoftmax:
			SoftmaxRow(layer.A)
		case ActRelu:
			layer.A.ApplyRelu()
		case ActSigmoid:
			layer.A.ApplySigmoid()
		case ActLinear:
		default:
			panic("Unknown activation type")
		}
		activation = layer.A
	}
}

// ComputeGradients backpropagates one batch. Targets arrive one-hot encoded
// (flat batch x classes, the provider's output format), labels as raw ints
// for the loss/accuracy bookkeeping. Forward must have run on input first.
func (nw *NeuralNetwork) ComputeGradients(input *Matrix, oneHot []float64, labels []int, grads []GradientSet) (float64, float64) {
	loss, acc := nw.LossAndAccuracy(labels)

	batchSize := input.rows
	scale := 1.0 / float64(batchSize)

	lastLayerIdx := len(nw.Layers) - 1
	lastLayer := nw.Layers[lastLayerIdx]

	// 1. Output Error (Softmax + CrossEntropy): dZ = A - Y
	if lastLayer.ActType != ActSoftmax {
		panic("Only Softmax output layer is currently supported")
	}
	if len(oneHot) != len(lastLayer.dZ.data) {
		panic(fmt.Sprintf("One-hot target size mismatch: got %d, want %d", len(oneHot), len(lastLayer.dZ.data)))
	}
	floats.SubTo(lastLayer.dZ.data, lastLayer.A.data, oneHot)

	// 2. Backprop Loop
	for i := lastLayerIdx; i >= 0; i-- {
		layer := nw.Layers[i]

		var aPrev *Matrix
		if i == 0 {
			aPrev = input
		} else {
			aPrev = nw.Layers[i-1].A
		}

		// dW = A_prev^T * dZ
		MatMul(aPrev.dense.T(), layer.dZ.dense, grads[i].dW)

		// db = column sums of dZ
		grads[i].db.Reset()
		dZData := layer.dZ.data
		dbData := grads[i].db.data
		cols := layer.dZ.cols
		for r := 0; r < layer.dZ.rows; r++ {
			rowOffset := r * cols
			for c := 0; c < cols; c++ {
				dbData[c] += dZData[rowOffset+c]
			}
		}

		floats.Scale(scale, grads[i].dW.data)
		floats.Scale(scale, grads[i].db.data)

		// --- CALC dZ_prev ---
		if i > 0 {
			prevLayer := nw.Layers[i-1]
			MatMul(layer.dZ.dense, layer.Weights.dense.T(), prevLayer.dZ)

			// Apply Activation Derivative of Previous Layer
			zData := prevLayer.Z.data
			dZPrevData := prevLayer.dZ.data
			for k := range dZPrevData {
				switch prevLayer.ActType {
				case ActRelu:
					if zData[k] <= 0 {
						dZPrevData[k] = 0
					}
				case ActSigmoid:
					a := prevLayer.A.data[k]
					dZPrevData[k] *= a * (1.0 - a)
				}
			}
		}
	}
	return loss, acc
}

// LossAndAccuracy reads the last forward pass: mean cross-entropy against
// the true labels plus argmax accuracy.
func (nw *NeuralNetwork) LossAndAccuracy(labels []int) (float64, float64) {
	output := nw.Layers[len(nw.Layers)-1].A
	totalLoss := 0.0
	correctCount := 0
	epsilon := 1e-15

	for i := 0; i < output.rows; i++ {
		row := output.Row(i)
		predicted := 0
		for j, prob := range row {
			if prob > row[predicted] {
				predicted = j
			}
		}
		totalLoss += -math.Log(row[labels[i]] + epsilon)
		if predicted == labels[i] {
			correctCount++
		}
	}
	return totalLoss / float64(output.rows), float64(correctCount) / float64(output.rows)
}

// PredictProbs runs a forward pass over a (rows x D) flat input block and
// returns a copy of the (rows x classes) probability matrix. Rows sum to 1
// courtesy of the softmax output, which is exactly what the submission
// writer validates downstream.
func (nw *NeuralNetwork) PredictProbs(inputs []float64, rows int) []float64 {
	inputSize := nw.Layers[0].Weights.rows
	if len(inputs) != rows*inputSize {
		panic(fmt.Sprintf("Input size mismatch. Expected %d, got %d", rows*inputSize, len(inputs)))
	}

	inputMat := NewMatrixFromSlice(rows, inputSize, inputs)
	nw.Forward(inputMat)

	out := nw.Layers[len(nw.Layers)-1].A
	probs := make([]float64, len(out.data))
	copy(probs, out.data)
	return probs
}

// Predict classifies a single feature vector, returning (class, confidence).
func (nw *NeuralNetwork) Predict(inputData []float64) (int, float64) {
	probs := nw.PredictProbs(inputData, 1)

	bestClass := -1
	maxProb := -1.0
	for i, prob := range probs {
		if prob > maxProb {
			maxProb = prob
			bestClass = i
		}
	}
	return bestClass, maxProb
}

// SaveToFile saves the network weights and biases to a gob file.
func (nw *NeuralNetwork) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	encoder := gob.NewEncoder(file)

	type LayerData struct {
		Weights *Matrix
		Biases  *Matrix
		ActType ActivationType
	}
	type NetworkData struct {
		LayerDatas []LayerData
	}

	ld := make([]LayerData, len(nw.Layers))
	for i, l := range nw.Layers {
		ld[i] = LayerData{
			Weights: l.Weights,
			Biases:  l.Biases,
			ActType: l.ActType,
		}
	}

	fmt.Println("Saving model to", filename)
	return encoder.Encode(NetworkData{LayerDatas: ld})
}

// LoadFromFile restores weights into an already-built network, validating
// the architecture before overwriting anything.
func (nw *NeuralNetwork) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	decoder := gob.NewDecoder(file)

	// Same struct definition as SaveToFile
	type LayerData struct {
		Weights *Matrix
		Biases  *Matrix
		ActType ActivationType
	}
	type NetworkData struct {
		LayerDatas []LayerData
	}

	var loadedData NetworkData
	if err := decoder.Decode(&loadedData); err != nil {
		return fmt.Errorf("failed to decode gob file: %v", err)
	}

	// --- VALIDATION STEP ---
	if len(nw.Layers) != len(loadedData.LayerDatas) {
		return fmt.Errorf("architecture mismatch: current network has %d layers, model file has %d",
			len(nw.Layers), len(loadedData.LayerDatas))
	}

	checkDims := func(name string, layerIdx int, current, loaded *Matrix) error {
		if current == nil || loaded == nil {
			return fmt.Errorf("layer %d %s mismatch: one is nil", layerIdx, name)
		}
		if current.rows != loaded.rows || current.cols != loaded.cols {
			return fmt.Errorf("layer %d %s shape mismatch: expected [%d, %d], got [%d, %d]",
				layerIdx, name,
				current.rows, current.cols,
				loaded.rows, loaded.cols,
			)
		}
		return nil
	}

	for i, currLayer := range nw.Layers {
		loadedLayer := loadedData.LayerDatas[i]

		if currLayer.ActType != loadedLayer.ActType {
			return fmt.Errorf("layer %d mismatch: expected activation %v, got %v",
				i, currLayer.ActType, loadedLayer.ActType)
		}
		if err := checkDims("Weights", i, currLayer.Weights, loadedLayer.Weights); err != nil {
			return err
		}
		if err := checkDims("Biases", i, currLayer.Biases, loadedLayer.Biases); err != nil {
			return err
		}
	}

	// --- APPLICATION STEP ---
	for i := range nw.Layers {
		copy(nw.Layers[i].Weights.data, loadedData.LayerDatas[i].Weights.data)
		copy(nw.Layers[i].Biases.data, loadedData.LayerDatas[i].Biases.data)
	}

	return nil
}
