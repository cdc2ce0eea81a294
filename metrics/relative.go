// Package metrics は推定結果の評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/krego/pkg/errors"
)

// WeightedRelativeError は重み付き相対誤差行列を計算する
//
//	werr[l,t] = ((xHat[l,t] - xTrue[l,t]) / xTrue[l,t]) * sqrt(weights[l])
//
// weights は潜在パラメータ軸（行）にブロードキャストされる。
// weights が nil の場合は全て 1 として扱う。
func WeightedRelativeError(xHat, xTrue mat.Matrix, weights []float64) (*mat.Dense, error) {
	const op = "metrics.WeightedRelativeError"

	l, n := xTrue.Dims()
	hl, hn := xHat.Dims()
	if hl != l {
		return nil, errors.NewDimensionError(op, l, hl, 0)
	}
	if hn != n {
		return nil, errors.NewDimensionError(op, n, hn, 1)
	}
	if weights != nil && len(weights) != l {
		return nil, errors.NewDimensionError(op, l, len(weights), 0)
	}

	werr := mat.NewDense(l, n, nil)
	for i := 0; i < l; i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		sqrtW := math.Sqrt(w)
		for j := 0; j < n; j++ {
			truth := xTrue.At(i, j)
			werr.Set(i, j, (xHat.At(i, j)-truth)/truth*sqrtW)
		}
	}
	return werr, nil
}

// HoldoutCost はホールドアウト探索で用いるコストを計算する
//
//	cost = sqrt( ||werr||_F / n )
//
// ノルムは行列全体のフロベニウスノルム（次元軸と標本軸をまとめた単一スカラー）
// であり、標本ごとのRMSではない。探索のテストシナリオはこの式に対して
// 較正されているため、式を変更してはならない。
func HoldoutCost(werr mat.Matrix, n int) (float64, error) {
	const op = "metrics.HoldoutCost"

	if n < 1 {
		return 0, errors.NewValidationError("n", "must be at least 1", n)
	}

	cost := math.Sqrt(mat.Norm(werr, 2) / float64(n))
	if err := errors.CheckScalar(op, cost); err != nil {
		return 0, err
	}
	return cost, nil
}
