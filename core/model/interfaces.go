// Package model provides the estimator interfaces and base types shared by
// the training and prediction packages.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
// x は潜在パラメータ [L,T]、y は観測特徴量 [Q,T]
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(x, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は新しい特徴量 [Q,N] に対する潜在パラメータ推定 [L,N] を返す
	Predict(y mat.Matrix) (*mat.Dense, error)
}

// Estimator は学習と予測の両方を行うモデルのインターフェース
type Estimator interface {
	Fitter
	Predictor
}
