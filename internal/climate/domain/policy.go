package domain

// SelectMode applies the priority ordered policy: a spread above threshold
// wins over everything, then any cold location, then any hot one.
func SelectMode(s AggregateSnapshot, thresholds Thresholds) Mode {
	switch {
	case s.MaxPairwiseSpread() > thresholds.Spread:
		return ModeFan
	case s.AnyBelowLow():
		return ModeHeat
	case s.AnyAboveHigh():
		return ModeCool
	default:
		return ModeOff
	}
}
