package constellation

import (
	"fmt"
	"math"
	"math/cmplx"
)

// SectorTable maps a quantized sector id to the nearest symbol index.
// Built once from geometry and never mutated afterwards.
type SectorTable []int

// buildSectorTable evaluates the nearest symbol for every sector's geometric
// center.
func buildSectorTable(ps *PointSet, nSectors int, center func(sector int) complex128) SectorTable {
	table := make(SectorTable, nSectors)
	for sector := range table {
		c := center(sector)
		table[sector] = ps.ClosestPoint([]complex128{c})
	}
	return table
}

// RectSectors decides by quantizing the complex plane into equal-width
// rectangular bins centered on the origin and looking the bin up in a
// precomputed sector table. Valid only for dimensionality-1 constellations.
type RectSectors struct {
	ps          *PointSet
	realSectors int
	imagSectors int
	widthReal   float64
	widthImag   float64
	table       SectorTable
}

// NewRectSectors creates a rectangular-sector decider. Bin widths are given
// in the caller's pre-normalization coordinates and are scaled by the point
// set's scale factor. The sector table is computed from the nearest symbol to
// each bin center.
func NewRectSectors(ps *PointSet, realSectors, imagSectors int, widthReal, widthImag float64) (*RectSectors, error) {
	r, err := newRectGeometry(ps, realSectors, imagSectors, widthReal, widthImag)
	if err != nil {
		return nil, err
	}
	r.table = buildSectorTable(ps, realSectors*imagSectors, r.sectorCenter)
	return r, nil
}

// NewExplicitRectSectors creates a rectangular-sector decider with a
// caller-supplied sector table instead of a computed one, for layouts where
// an external design already knows the optimal mapping.
func NewExplicitRectSectors(ps *PointSet, realSectors, imagSectors int, widthReal, widthImag float64, sectorValues []int) (*RectSectors, error) {
	r, err := newRectGeometry(ps, realSectors, imagSectors, widthReal, widthImag)
	if err != nil {
		return nil, err
	}
	if len(sectorValues) != realSectors*imagSectors {
		return nil, fmt.Errorf("%w: sector table length %d does not match %d sectors",
			ErrConfiguration, len(sectorValues), realSectors*imagSectors)
	}
	for sector, symbol := range sectorValues {
		if symbol < 0 || symbol >= ps.Arity() {
			return nil, fmt.Errorf("%w: sector %d maps to symbol %d outside arity %d",
				ErrConfiguration, sector, symbol, ps.Arity())
		}
	}
	r.table = append(SectorTable(nil), sectorValues...)
	return r, nil
}

func newRectGeometry(ps *PointSet, realSectors, imagSectors int, widthReal, widthImag float64) (*RectSectors, error) {
	if ps.Dimensionality() != 1 {
		return nil, fmt.Errorf("%w: rectangular sectors require dimensionality 1, have %d",
			ErrConfiguration, ps.Dimensionality())
	}
	if realSectors < 1 || imagSectors < 1 {
		return nil, fmt.Errorf("%w: sector counts %dx%d must be positive",
			ErrConfiguration, realSectors, imagSectors)
	}
	if widthReal <= 0 || widthImag <= 0 {
		return nil, fmt.Errorf("%w: sector widths %gx%g must be positive",
			ErrConfiguration, widthReal, widthImag)
	}
	return &RectSectors{
		ps:          ps,
		realSectors: realSectors,
		imagSectors: imagSectors,
		widthReal:   widthReal * ps.ScaleFactor(),
		widthImag:   widthImag * ps.ScaleFactor(),
	}, nil
}

// sector quantizes a sample into a bin id. Out-of-range samples saturate to
// the boundary bins rather than failing.
func (r *RectSectors) sector(sample complex128) int {
	realSector := int(real(sample)/r.widthReal + float64(r.realSectors)/2.0)
	if realSector < 0 {
		realSector = 0
	}
	if realSector >= r.realSectors {
		realSector = r.realSectors - 1
	}

	imagSector := int(imag(sample)/r.widthImag + float64(r.imagSectors)/2.0)
	if imagSector < 0 {
		imagSector = 0
	}
	if imagSector >= r.imagSectors {
		imagSector = r.imagSectors - 1
	}

	return realSector*r.imagSectors + imagSector
}

// sectorCenter returns the geometric center of a bin.
func (r *RectSectors) sectorCenter(sector int) complex128 {
	realSector := sector / r.imagSectors
	imagSector := sector - realSector*r.imagSectors
	return complex(
		(float64(realSector)+0.5-float64(r.realSectors)/2.0)*r.widthReal,
		(float64(imagSector)+0.5-float64(r.imagSectors)/2.0)*r.widthImag,
	)
}

// Decide returns the symbol mapped to the sample's bin.
func (r *RectSectors) Decide(sample []complex128) int {
	return r.table[r.sector(sample[0])]
}

// PointSet returns the reference points.
func (r *RectSectors) PointSet() *PointSet { return r.ps }

// Sectors returns a copy of the sector table.
func (r *RectSectors) Sectors() SectorTable {
	return append(SectorTable(nil), r.table...)
}

// PSKSectors decides by quantizing the sample's phase into n equal angular
// wedges. Valid only for dimensionality-1 constellations.
type PSKSectors struct {
	ps       *PointSet
	nSectors int
	table    SectorTable
}

// NewPSKSectors creates an angular-sector decider. The sector table is
// computed from the nearest symbol to each wedge's center direction on the
// unit circle.
func NewPSKSectors(ps *PointSet, nSectors int) (*PSKSectors, error) {
	if ps.Dimensionality() != 1 {
		return nil, fmt.Errorf("%w: angular sectors require dimensionality 1, have %d",
			ErrConfiguration, ps.Dimensionality())
	}
	if nSectors < 1 {
		return nil, fmt.Errorf("%w: sector count %d must be positive", ErrConfiguration, nSectors)
	}
	p := &PSKSectors{ps: ps, nSectors: nSectors}
	p.table = buildSectorTable(ps, nSectors, p.sectorCenter)
	return p, nil
}

// sector rounds the sample's phase to the nearest wedge, wrapping negative
// results into [0, n).
func (p *PSKSectors) sector(sample complex128) int {
	phase := cmplx.Phase(sample)
	width := 2 * math.Pi / float64(p.nSectors)
	sector := int(math.Floor(phase/width + 0.5))
	if sector < 0 {
		sector += p.nSectors
	}
	return sector
}

// sectorCenter returns the wedge's center direction on the unit circle.
func (p *PSKSectors) sectorCenter(sector int) complex128 {
	phase := float64(sector) * 2 * math.Pi / float64(p.nSectors)
	return complex(math.Cos(phase), math.Sin(phase))
}

// Decide returns the symbol mapped to the sample's wedge.
func (p *PSKSectors) Decide(sample []complex128) int {
	return p.table[p.sector(sample[0])]
}

// PointSet returns the reference points.
func (p *PSKSectors) PointSet() *PointSet { return p.ps }

// Sectors returns a copy of the sector table.
func (p *PSKSectors) Sectors() SectorTable {
	return append(SectorTable(nil), p.table...)
}
