// Package diag records what happened during one localization cycle.
//
// A Record is filled by the segmentation and the filter as they run and
// can be inspected, logged or streamed afterwards. All methods accept a
// nil receiver so recording can be switched off by passing nil.
package diag

import "github.com/milosgajdos/go-vloc/transf"

// Span is a pair of laser readings delimiting a part of a scan
type Span struct {
	Rho1 float64 `json:"rho1"`
	Phi1 float64 `json:"phi1"`
	Rho2 float64 `json:"rho2"`
	Phi2 float64 `json:"phi2"`
}

// Match is an observed segment paired with a map segment
type Match struct {
	// Observed delimits the observed segment in the scan
	Observed Span `json:"observed"`
	// Feature is the index of the observed segment
	Feature int `json:"feature"`
	// Segment is the index of the map segment
	Segment int `json:"segment"`
	// Ratio is the Mahalanobis distance divided by the gate
	Ratio float64 `json:"ratio"`
}

// Record is the diagnostics record of one localization cycle
type Record struct {
	// LaserRho are the valid ranges of the scan
	LaserRho []float64 `json:"laser_rho"`
	// LaserPhi are the valid bearings of the scan
	LaserPhi []float64 `json:"laser_phi"`
	// Regions are the homogeneous regions found in the scan
	Regions []Span `json:"regions"`
	// Splits are the observed segments
	Splits []Span `json:"splits"`
	// Features counts the observed segments kept for matching
	Features int `json:"features"`
	// Matches are the pairings fused into the pose
	Matches []Match `json:"matches"`
	// Skipped counts candidates dropped on numerical degeneracy
	Skipped int `json:"skipped"`
	// Predicted is the pose after prediction
	Predicted transf.Transf `json:"predicted"`
	// Updated is the pose after all updates
	Updated transf.Transf `json:"updated"`
	// NoMatches is set when no observed segment matched the map
	NoMatches bool `json:"no_matches"`
	// Jump is set when the correction exceeded the jump distance
	Jump bool `json:"jump"`
	// JumpDistance is the size of the correction
	JumpDistance float64 `json:"jump_distance"`
	// Throttled is set when the cycle was skipped
	Throttled bool `json:"throttled"`
}

// Reset clears the record.
func (r *Record) Reset() {
	if r == nil {
		return
	}
	*r = Record{}
}

// SetLaser records the valid readings of the scan.
func (r *Record) SetLaser(rho, phi []float64) {
	if r == nil {
		return
	}
	r.LaserRho, r.LaserPhi = rho, phi
}

// AddRegion records a homogeneous region.
func (r *Record) AddRegion(s Span) {
	if r == nil {
		return
	}
	r.Regions = append(r.Regions, s)
}

// AddSplit records an observed segment.
func (r *Record) AddSplit(s Span) {
	if r == nil {
		return
	}
	r.Splits = append(r.Splits, s)
}

// SetFeatures records the number of observed segments kept for matching.
func (r *Record) SetFeatures(n int) {
	if r == nil {
		return
	}
	r.Features = n
}

// AddMatch records a fused pairing.
func (r *Record) AddMatch(m Match) {
	if r == nil {
		return
	}
	r.Matches = append(r.Matches, m)
}

// Skip counts a candidate dropped on numerical degeneracy.
func (r *Record) Skip() {
	if r == nil {
		return
	}
	r.Skipped++
}

// SetPredicted records the predicted pose.
func (r *Record) SetPredicted(p transf.Transf) {
	if r == nil {
		return
	}
	r.Predicted = p
}

// SetUpdated records the updated pose and whether anything matched.
func (r *Record) SetUpdated(p transf.Transf, matches int) {
	if r == nil {
		return
	}
	r.Updated = p
	r.NoMatches = matches == 0
}

// SetJump records the size of the correction and whether it is a jump.
func (r *Record) SetJump(dist float64, jump bool) {
	if r == nil {
		return
	}
	r.JumpDistance = dist
	r.Jump = jump
}

// SetThrottled marks the cycle as skipped.
func (r *Record) SetThrottled() {
	if r == nil {
		return
	}
	r.Throttled = true
}
