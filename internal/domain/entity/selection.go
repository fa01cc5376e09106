package entity

// Strategy names a frame selection strategy.
type Strategy string

const (
	StrategyUniform Strategy = "uniform"
	StrategyScene   Strategy = "scene"
	StrategyMotion  Strategy = "motion"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyUniform, StrategyScene, StrategyMotion:
		return true
	}
	return false
}

// SelectionParams carries the strategy and its numeric parameter. Count is
// used by the uniform strategy, Threshold by scene and motion.
type SelectionParams struct {
	Strategy  Strategy `json:"strategy"`
	Count     int      `json:"count,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
}
