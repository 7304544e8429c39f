// Package segment extracts uncertain line segments from laser scans.
//
// A scan is first cut into homogeneous regions: runs of consecutive readings
// without angular or range gaps. Every region is then split recursively at
// the reading that disagrees most with the line through its endpoints, and
// finally every span between consecutive split points is fitted with an
// uncertain edge.
package segment

import (
	"fmt"

	"github.com/milosgajdos/go-vloc/diag"
	"github.com/milosgajdos/go-vloc/scan"
	"github.com/milosgajdos/go-vloc/uloc"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config configures segmentation
type Config struct {
	// MaxEmptyAngle is the largest bearing gap inside a region
	MaxEmptyAngle float64
	// MaxEmptyDistance is the largest range jump inside a region
	MaxEmptyDistance float64
	// MinRegionLength is the minimum distance between region endpoints
	MinRegionLength float64
	// MinPointsInRegion is the minimum number of readings in a region
	MinPointsInRegion int
	// MinPointsInSegment is the minimum number of readings in a segment
	MinPointsInSegment int
	// SplitConfidence is the confidence level of the split test
	SplitConfidence float64
	// CheckResidual enables the residual test when splitting
	CheckResidual bool
	// MaxAngEBE is the minimum angle between the halves of a split
	MaxAngEBE float64
	// MinDistBetweenEndpoints is the minimum length of the halves of a split
	MinDistBetweenEndpoints float64
}

// DefaultConfig returns default segmentation configuration.
func DefaultConfig() Config {
	return Config{
		MaxEmptyAngle:           0.035,
		MaxEmptyDistance:        0.1,
		MinRegionLength:         0.2,
		MinPointsInRegion:       4,
		MinPointsInSegment:      4,
		SplitConfidence:         0.95,
		CheckResidual:           false,
		MaxAngEBE:               0,
		MinDistBetweenEndpoints: 0,
	}
}

// Validate returns error if the configuration is invalid.
func (c Config) Validate() error {
	switch {
	case c.MaxEmptyAngle < 0:
		return fmt.Errorf("invalid max empty angle: %f", c.MaxEmptyAngle)
	case c.MaxEmptyDistance < 0:
		return fmt.Errorf("invalid max empty distance: %f", c.MaxEmptyDistance)
	case c.MinRegionLength < 0:
		return fmt.Errorf("invalid min region length: %f", c.MinRegionLength)
	case c.MinPointsInRegion < 2:
		return fmt.Errorf("invalid min points in region: %d", c.MinPointsInRegion)
	case c.MinPointsInSegment < 2:
		return fmt.Errorf("invalid min points in segment: %d", c.MinPointsInSegment)
	case !(c.SplitConfidence > 0 && c.SplitConfidence < 1):
		return fmt.Errorf("invalid split confidence: %f", c.SplitConfidence)
	case c.MaxAngEBE < 0:
		return fmt.Errorf("invalid max angle between endpoints: %f", c.MaxAngEBE)
	case c.MinDistBetweenEndpoints < 0:
		return fmt.Errorf("invalid min distance between endpoints: %f", c.MinDistBetweenEndpoints)
	}

	return nil
}

// Feature is an observed segment
type Feature struct {
	// Edge is the segment edge in the robot frame
	Edge *uloc.Uloc
	// Length is the distance between the segment endpoints
	Length float64
	// Codim is the variance of the segment endpoints along the segment
	Codim float64
	// From is the index of the first reading of the segment
	From int
	// To is the index of the last reading of the segment
	To int
	// Span delimits the segment in the scan
	Span diag.Span
}

// Features are the segments observed in one scan, in scan order
type Features []Feature

// Segmenter segments laser scans
type Segmenter struct {
	// cfg is segmentation configuration
	cfg Config
	// threshold is the split test threshold
	threshold float64
}

// New creates new Segmenter and returns it.
// It returns error if the configuration is invalid.
func New(cfg Config) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chi := distuv.ChiSquared{K: 1}

	return &Segmenter{
		cfg:       cfg,
		threshold: chi.Quantile(cfg.SplitConfidence),
	}, nil
}

// Config returns segmentation configuration.
func (sg *Segmenter) Config() Config {
	return sg.cfg
}

// Segment extracts the segments observed in s.
// Regions, splits and skipped degenerate fits are recorded in rec.
func (sg *Segmenter) Segment(s *scan.Scan, rec *diag.Record) Features {
	regions := sg.FindRegions(s)

	for i := range regions {
		rec.AddRegion(span(s, regions[i].From, regions[i].To))
		for n := sg.Split(s, &regions[i]); n > 0; n-- {
			rec.Skip()
		}

		ep := regions[i].Endpoints
		for j := 0; j < len(ep)-1; j++ {
			rec.AddSplit(span(s, ep[j], ep[j+1]))
		}
	}

	features, skipped := sg.Segments(s, regions)
	for ; skipped > 0; skipped-- {
		rec.Skip()
	}

	return features
}

func span(s *scan.Scan, from, to int) diag.Span {
	return diag.Span{
		Rho1: s.Rho(from),
		Phi1: s.Phi(from),
		Rho2: s.Rho(to),
		Phi2: s.Phi(to),
	}
}
