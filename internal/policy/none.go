package policy

// NonePolicy is the zero-sized policy internal/cache holds for every
// direct-mapped cache: the victim there is always the one slot at
// decomposed.index, so this policy is never asked to choose one. It gives
// the cache's policy field a well-typed, harmless value (GateCost 0)
// rather than a nil interface the rest of the package would need to
// special-case.
type NonePolicy struct{}

func (NonePolicy) LogUse(int)       {}
func (NonePolicy) Pop() int         { return 0 }
func (NonePolicy) GateCost() uint64 { return 0 }
