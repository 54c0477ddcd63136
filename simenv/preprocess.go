package simenv

import (
	"fmt"

	"github.com/unixpickle/anydqn"
	"github.com/unixpickle/anyvec"
)

// DefaultIntensityScale maps 8-bit intensities into
// [0, 1].
const DefaultIntensityScale = 1.0 / 255

// PreprocessEnv wraps an Env which produces raw camera
// frames and turns them into network inputs.
//
// Frames are center-cropped to the output aspect ratio,
// subsampled to OutWidth x OutHeight with nearest-neighbor
// sampling, and scaled by Scale.
type PreprocessEnv struct {
	Env anydqn.Env

	FrameWidth  int
	FrameHeight int
	OutWidth    int
	OutHeight   int

	// Scale multiplies every intensity.
	// If 0, DefaultIntensityScale is used.
	Scale float64

	sampler anyvec.Mapper
}

// Reset resets the environment.
func (p *PreprocessEnv) Reset() (observation anyvec.Vector, err error) {
	observation, err = p.Env.Reset()
	if observation != nil {
		observation = p.simplifyImage(observation)
	}
	return
}

// Step takes a step in the environment.
func (p *PreprocessEnv) Step(action int) (observation anyvec.Vector,
	reward float64, done bool, err error) {
	observation, reward, done, err = p.Env.Step(action)
	if observation != nil {
		observation = p.simplifyImage(observation)
	}
	return
}

func (p *PreprocessEnv) simplifyImage(in anyvec.Vector) anyvec.Vector {
	if in.Len() != p.FrameWidth*p.FrameHeight {
		panic(fmt.Sprintf("frame has %d pixels but expected %dx%d", in.Len(),
			p.FrameWidth, p.FrameHeight))
	}
	if p.sampler == nil {
		p.sampler = p.makeSampler(in.Creator())
	}
	cr := in.Creator()
	out := cr.MakeVector(p.sampler.OutSize())
	p.sampler.Map(in, out)
	scale := p.Scale
	if scale == 0 {
		scale = DefaultIntensityScale
	}
	out.Scale(cr.MakeNumeric(scale))
	return out
}

func (p *PreprocessEnv) makeSampler(cr anyvec.Creator) anyvec.Mapper {
	return cr.MakeMapper(p.FrameWidth*p.FrameHeight, SubsampleTable(p.FrameWidth,
		p.FrameHeight, p.OutWidth, p.OutHeight))
}

// SubsampleTable creates a mapping table which crops a
// frame to the aspect ratio of the output and picks one
// source pixel per output pixel.
func SubsampleTable(frameWidth, frameHeight, outWidth, outHeight int) []int {
	cropWidth, cropHeight := frameWidth, frameHeight
	if frameWidth*outHeight > frameHeight*outWidth {
		cropWidth = frameHeight * outWidth / outHeight
	} else {
		cropHeight = frameWidth * outHeight / outWidth
	}
	startX := (frameWidth - cropWidth) / 2
	startY := (frameHeight - cropHeight) / 2

	mapping := make([]int, 0, outWidth*outHeight)
	for y := 0; y < outHeight; y++ {
		srcY := startY + y*cropHeight/outHeight
		for x := 0; x < outWidth; x++ {
			srcX := startX + x*cropWidth/outWidth
			mapping = append(mapping, srcY*frameWidth+srcX)
		}
	}
	return mapping
}
