package nn

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"fashionnet/nn/layers"
)

// SGD applies mini-batch gradient descent over a network's parameters,
// optionally with classical momentum:
//
//	v <- momentum*v + grad
//	w <- w - lr*v
//
// A zero Momentum reduces to plain SGD.
type SGD struct {
	LR       float64
	Momentum float64

	layers []*layers.Linear
	velW   []*mat.Dense
	velB   []*mat.VecDense
}

func NewSGD(model *Network, lr, momentum float64) *SGD {
	lins := model.Linears()
	s := &SGD{LR: lr, Momentum: momentum, layers: lins}
	if momentum != 0 {
		s.velW = make([]*mat.Dense, len(lins))
		s.velB = make([]*mat.VecDense, len(lins))
		for i, l := range lins {
			r, c := l.W.Dims()
			s.velW[i] = mat.NewDense(r, c, nil)
			s.velB[i] = mat.NewVecDense(l.B.Len(), nil)
		}
	}
	return s
}

// ZeroGrad clears the accumulated gradients of every parameterised layer.
func (s *SGD) ZeroGrad() {
	for _, l := range s.layers {
		l.ZeroGrad()
	}
}

// Step mutates the parameters in place from the accumulated gradients.
func (s *SGD) Step() {
	for i, l := range s.layers {
		w := l.W.RawMatrix().Data
		gw := l.GradW.RawMatrix().Data
		b := l.B.RawVector().Data
		gb := l.GradB.RawVector().Data

		if s.Momentum != 0 {
			vw := s.velW[i].RawMatrix().Data
			floats.Scale(s.Momentum, vw)
			floats.Add(vw, gw)
			floats.AddScaled(w, -s.LR, vw)

			vb := s.velB[i].RawVector().Data
			floats.Scale(s.Momentum, vb)
			floats.Add(vb, gb)
			floats.AddScaled(b, -s.LR, vb)
			continue
		}

		floats.AddScaled(w, -s.LR, gw)
		floats.AddScaled(b, -s.LR, gb)
	}
}
