package anydqn

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyconv"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// A Scorer produces one score per action for a single
// observation.
type Scorer interface {
	Scores(obs anyvec.Vector) []float64
}

// QNet is a feed-forward network mapping a single-channel
// image to one Q-value per action.
type QNet struct {
	Net anynet.Net

	// InSize is the number of components in one input
	// image.
	InSize int

	NumActions int
}

// NewQNet creates the convolutional Q-network described
// by the image size and action count in cfg.
//
// The network has three strided convolutions followed by
// two fully-connected layers.
// Its initial weights are drawn from cfg.Seed.
func NewQNet(c anyvec.Creator, cfg Config) (q *QNet, err error) {
	defer essentials.AddCtxTo("create Q-network", &err)
	markup := fmt.Sprintf(`
		Input(w=%d, h=%d, d=1)

		Conv(w=4, h=4, n=84, sx=4, sy=4)
		ReLU
		Conv(w=4, h=4, n=42, sx=2, sy=2)
		ReLU
		Conv(w=2, h=2, n=21, sx=2, sy=2)
		ReLU

		FC(out=168)
		ReLU
		FC(out=%d)
	`, cfg.ImageWidth, cfg.ImageHeight, cfg.NumActions)
	layer, err := anyconv.FromMarkup(c, markup)
	if err != nil {
		return nil, err
	}
	net := layer.(anynet.Net)
	reseed(net, rand.New(rand.NewSource(cfg.Seed)))
	return &QNet{
		Net:        net,
		InSize:     cfg.ImageWidth * cfg.ImageHeight,
		NumActions: cfg.NumActions,
	}, nil
}

// Creator returns the creator of the network parameters.
func (q *QNet) Creator() anyvec.Creator {
	return q.Parameters()[0].Vector.Creator()
}

// Parameters returns the learnable parameters in a fixed
// order.
func (q *QNet) Parameters() []*anydiff.Var {
	return anynet.AllParameters(q.Net)
}

// Apply applies the network to a batch of n images.
//
// The result contains n*q.NumActions values.
func (q *QNet) Apply(in anydiff.Res, n int) anydiff.Res {
	if in.Output().Len() != n*q.InSize {
		panic(fmt.Sprintf("input length %d does not match %d images of size %d",
			in.Output().Len(), n, q.InSize))
	}
	return q.Net.Apply(in, n)
}

// Scores computes the Q-values for a single image.
func (q *QNet) Scores(obs anyvec.Vector) []float64 {
	return vectorFloats(q.Apply(anydiff.NewConst(obs), 1).Output())
}

// Copy creates a deep copy of the network.
func (q *QNet) Copy() (*QNet, error) {
	copied, err := serializer.Copy(q.Net)
	if err != nil {
		return nil, essentials.AddCtx("copy Q-network", err)
	}
	return &QNet{
		Net:        copied.(anynet.Net),
		InSize:     q.InSize,
		NumActions: q.NumActions,
	}, nil
}

// SetParams copies the parameters of src into q.
//
// The networks must have identical architectures.
func (q *QNet) SetParams(src *QNet) error {
	return setParams(q.Parameters(), src.Parameters())
}

// Summary describes each layer of the network and its
// parameter count.
func (q *QNet) Summary() string {
	var buf bytes.Buffer
	var total int
	for i, layer := range q.Net {
		var count int
		for _, p := range anynet.AllParameters(layer) {
			count += p.Vector.Len()
		}
		total += count
		fmt.Fprintf(&buf, "layer %d: %T params=%d\n", i, layer, count)
	}
	fmt.Fprintf(&buf, "total params=%d", total)
	return buf.String()
}

// reseed redraws every nonzero parameter from a normal
// distribution with the same root-mean-square as its
// initial value.
func reseed(net anynet.Net, gen *rand.Rand) {
	for _, p := range anynet.AllParameters(net) {
		var sumSq float64
		for _, x := range vectorFloats(p.Vector) {
			sumSq += x * x
		}
		if sumSq == 0 {
			continue
		}
		scale := math.Sqrt(sumSq / float64(p.Vector.Len()))
		anyvec.Rand(p.Vector, anyvec.Normal, gen)
		p.Vector.Scale(p.Vector.Creator().MakeNumeric(scale))
	}
}

func setParams(dst, src []*anydiff.Var) error {
	if err := checkParams(dst, src); err != nil {
		return err
	}
	for i, p := range src {
		dst[i].Vector.Set(p.Vector)
	}
	return nil
}

// checkParams checks that two parameter lists have the
// same shapes.
func checkParams(dst, src []*anydiff.Var) error {
	if len(dst) != len(src) {
		return fmt.Errorf("parameter count mismatch: %d vs %d", len(dst), len(src))
	}
	for i, p := range src {
		if p.Vector.Len() != dst[i].Vector.Len() {
			return fmt.Errorf("parameter %d: length %d does not match %d", i,
				p.Vector.Len(), dst[i].Vector.Len())
		}
	}
	return nil
}

// Greedy returns the index of the largest score.
// Ties go to the lowest index.
func Greedy(scores []float64) int {
	if len(scores) == 0 {
		panic("no scores to choose from")
	}
	var best int
	for i, x := range scores {
		if x > scores[best] {
			best = i
		}
	}
	return best
}

func vectorFloats(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return data
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}

func floatsVector(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}
