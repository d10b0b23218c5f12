package linear

import (
	"context"
	"testing"

	"github.com/YuminosukeSato/xlinear/sparse"
)

// BenchmarkTrain は各ソルバーの学習呼び出しのベンチマークを実行する
func BenchmarkTrain(b *testing.B) {
	sizes := []struct {
		name    string
		rows    int
		cols    int
		labels  int
		density float64
		maxIter int
	}{
		{"Small_200x100x8", 200, 100, 8, 0.05, 20},
		{"Medium_1000x500x16", 1000, 500, 16, 0.02, 20},
		{"Large_3000x1000x16", 3000, 1000, 16, 0.01, 10},
	}

	for _, size := range sizes {
		prob := synthetic(b, 42, size.rows, size.cols, size.labels, size.density)
		for _, s := range SolverTypes() {
			b.Run(size.name+"/"+s.String(), func(b *testing.B) {
				p := NewTrainParams(WithSolver(s), WithMaxIter(size.maxIter), WithThreshold(0))
				trainer := NewTrainer(WithLogger(quietLogger()))

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := trainer.Train(context.Background(), prob, nil, p); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkWarmStart はウォームスタートからの再学習を測定する（比較用）
func BenchmarkWarmStart(b *testing.B) {
	prob := synthetic(b, 7, 1000, 500, 16, 0.02)
	for _, s := range []SolverType{L2RL2LossSVCDual, L2RL2LossSVCPrimal} {
		p := NewTrainParams(WithSolver(s), WithMaxIter(50), WithThreshold(1e-3))
		res, err := NewTrainer(WithLogger(quietLogger())).Train(context.Background(), prob, nil, p)
		if err != nil {
			b.Fatal(err)
		}

		b.Run("Cold/"+s.String(), func(b *testing.B) {
			benchTrain(b, prob, nil, p)
		})
		b.Run("Warm/"+s.String(), func(b *testing.B) {
			benchTrain(b, prob, res.W, p)
		})
	}
}

func benchTrain(b *testing.B, prob *Problem, w0 *sparse.CSC, p TrainParams) {
	trainer := NewTrainer(WithLogger(quietLogger()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := trainer.Train(context.Background(), prob, w0, p); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkToCSR は双対ソルバーが使う行優先コピーのみを測定する
func BenchmarkToCSR(b *testing.B) {
	prob := synthetic(b, 1, 3000, 1000, 1, 0.01)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = prob.X.ToCSR()
	}
}
