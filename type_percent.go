package tracker

import (
	"fmt"
	"math"
)

// Percent is a return expressed in percentage points (5.0 means 5%).
type Percent float64

// Undefined is the distinct "no result" outcome for a return metric that
// cannot be computed for the given inputs. It is not an error and it is not
// zero; callers must render it as unavailable.
var Undefined = Percent(math.NaN())

// IsDefined reports whether the metric could be computed.
func (p Percent) IsDefined() bool { return !math.IsNaN(float64(p)) }

func (p Percent) Equal(q Percent) bool {
	if !p.IsDefined() || !q.IsDefined() {
		return p.IsDefined() == q.IsDefined()
	}
	// it has to be compared with some precision
	const precision = 0.0001
	diff := float64(p - q)
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	if !p.IsDefined() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(p))
}
