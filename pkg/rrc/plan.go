package rrc

import (
	"fmt"

	"github.com/ssargent/rrc/pkg/codec"
	"github.com/ssargent/rrc/pkg/ecc"
)

// LayerPlan is the geometry of one layer
type LayerPlan struct {
	Index          int   // 1 for the layer protecting the input
	Offset         int64 // Store offset of the layer's payload
	PayloadLength  int64
	BlockCount     int
	ParityLength   int64
	EntryCount     int
	TrailerSize    int   // Trailer bytes including the self-length byte
	MetadataLength int64 // Positioning table and trailer; the next layer's payload
	Last           bool
}

// RegionLength returns the length of the protected region (payload and parity)
func (l LayerPlan) RegionLength() int64 {
	return l.PayloadLength + l.ParityLength
}

// ChunkSize returns the size of one positioning chunk
func (l LayerPlan) ChunkSize(shape ecc.Shape) int64 {
	return int64(l.BlockCount) * int64(shape.DataSize)
}

// Plan is the complete geometry of a container
type Plan struct {
	Shape           ecc.Shape
	InputLength     int64
	Layers          []LayerPlan
	RemnantLength   int // Anchor payload length
	Repetitions     int
	ContainerLength int64
}

// AnchorLength returns the bytes occupied by the repeated anchor
func (p Plan) AnchorLength() int64 {
	return int64(p.Repetitions) * int64(p.RemnantLength+codec.AnchorOverhead)
}

// Overhead returns the container bytes added per input byte
func (p Plan) Overhead() float64 {
	if p.InputLength == 0 {
		return 0
	}
	return float64(p.ContainerLength-p.InputLength) / float64(p.InputLength)
}

// PlanLayers computes the layer sequence for an input without writing anything
func PlanLayers(inputLength int64, opts Options) (Plan, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Plan{}, err
	}
	if inputLength < 0 {
		return Plan{}, fmt.Errorf("negative input length %d", inputLength)
	}

	shape, err := ecc.SelectShape(opts.CorruptionRatio)
	if err != nil {
		return Plan{}, newError(KindParameterInfeasible, 0, 0, 0, err)
	}
	engine, err := ecc.NewEngine(shape, opts.engineOptions()...)
	if err != nil {
		return Plan{}, newError(KindParameterInfeasible, 0, 0, 0, err)
	}

	return planLayers(engine, inputLength, opts)
}

func planLayers(engine *ecc.Engine, inputLength int64, opts Options) (Plan, error) {
	shape := engine.Shape()
	plan := Plan{Shape: shape, InputLength: inputLength, Repetitions: opts.Repetitions}

	offset, payload := int64(0), inputLength
	for index := 1; ; index++ {
		if index > maxLayers {
			return Plan{}, newError(KindParameterInfeasible, 0, 0, 0,
				fmt.Errorf("layering of %s does not converge within %d layers", shape, maxLayers))
		}

		blockCount := engine.BlockCount(payload)
		parity := engine.ParityLength(payload, blockCount)
		trailer := codec.Trailer{
			DataSize:   uint8(shape.DataSize),
			EccSize:    uint8(shape.EccSize),
			BlockCount: uint32(blockCount),
			DataLength: uint64(payload),
			EccLength:  uint64(parity),
			Last:       index == 1,
		}
		layer := LayerPlan{
			Index:         index,
			Offset:        offset,
			PayloadLength: payload,
			BlockCount:    blockCount,
			ParityLength:  parity,
			EntryCount:    trailer.EntryCount(),
			TrailerSize:   trailer.Size(),
			Last:          index == 1,
		}
		layer.MetadataLength = int64(layer.EntryCount*codec.EntrySize + layer.TrailerSize)
		plan.Layers = append(plan.Layers, layer)

		meta := layer.MetadataLength
		if meta <= int64(opts.RepetitionThreshold) || (meta >= payload && meta <= codec.MaxAnchorPayload) {
			plan.RemnantLength = int(meta)
			break
		}
		if meta >= payload {
			return Plan{}, newError(KindParameterInfeasible, 0, 0, 0,
				fmt.Errorf("layer %d metadata of %d bytes does not shrink below its %d byte payload with %s",
					index, meta, payload, shape))
		}

		offset += layer.RegionLength()
		payload = meta
	}

	last := plan.Layers[len(plan.Layers)-1]
	plan.ContainerLength = last.Offset + last.RegionLength() + last.MetadataLength + plan.AnchorLength()
	return plan, nil
}
