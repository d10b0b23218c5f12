// Package model stores weight matrices and training reports on disk.
package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
	"github.com/YuminosukeSato/xlinear/sparse"
)

// SaveModel はモデル（任意のgobエンコード可能な値）をファイルに保存する
//
// 使用例:
//
//	res, _ := linear.NewTrainer().Train(ctx, prob, nil, params)
//	err := model.SaveModel(res.Labels, "reports.gob")
func SaveModel(v interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewModelError("SaveModel", "create file", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewModelError("SaveModel", "close file", cerr)
		}
	}()
	return SaveModelToWriter(v, file)
}

// LoadModel はファイルからモデルを読み込む。v はポインタでなければならない。
func LoadModel(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewModelError("LoadModel", "open file", err)
	}
	defer file.Close()
	return LoadModelFromReader(v, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.NewModelError("SaveModel", "encode", err)
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.NewModelError("LoadModel", "decode", err)
	}
	return nil
}

// SaveMatrix は疎行列をgob形式でファイルに保存する
func SaveMatrix(m *sparse.CSC, filename string) error {
	if m == nil {
		return errors.NewModelError("SaveMatrix", "nil matrix", nil)
	}
	return SaveModel(m, filename)
}

// LoadMatrix はファイルから疎行列を読み込む。
// 読み込んだ配列は NewCSC と同じ検証を通るため、壊れたファイルはエラーになる。
func LoadMatrix(filename string) (*sparse.CSC, error) {
	var m sparse.CSC
	if err := LoadModel(&m, filename); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadOptionalMatrix は filename が空なら nil を返し、そうでなければ LoadMatrix と同じ。
func LoadOptionalMatrix(filename string) (*sparse.CSC, error) {
	if filename == "" {
		return nil, nil
	}
	return LoadMatrix(filename)
}
