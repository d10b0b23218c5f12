package sparse

import (
	"bytes"
	"encoding/gob"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// cscWire is the gob representation of a CSC matrix.
type cscWire struct {
	Rows, Cols int
	Indptr     []int
	Indices    []int
	Data       []float32
}

// GobEncode implements gob.GobEncoder.
func (m *CSC) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	w := cscWire{Rows: m.rows, Cols: m.cols, Indptr: m.indptr, Indices: m.indices, Data: m.data}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder. The decoded arrays are validated the
// same way NewCSC validates caller-supplied ones.
func (m *CSC) GobDecode(b []byte) error {
	var w cscWire
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return err
	}
	if w.Rows < 0 {
		return errors.NewDimensionError("CSC.GobDecode", 0, w.Rows, 0)
	}
	if w.Cols < 0 {
		return errors.NewDimensionError("CSC.GobDecode", 0, w.Cols, 1)
	}
	// gob drops empty slices; restore the shapes NewCSC expects.
	if w.Indptr == nil {
		w.Indptr = make([]int, w.Cols+1)
	}
	if w.Indices == nil {
		w.Indices = []int{}
	}
	if w.Data == nil {
		w.Data = []float32{}
	}
	decoded, err := NewCSC(w.Rows, w.Cols, w.Indptr, w.Indices, w.Data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
