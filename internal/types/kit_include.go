package types

// KitInclude selects which kit associations a store read loads.
type KitInclude uint32

const (
	IncludeItems KitInclude = 1 << iota
	IncludeCooldowns
	IncludeRequirements
	IncludeAccess
)

// Presets are plain unions of the primitive bits.
const (
	IncludeNone     KitInclude = 0
	IncludeDefault             = IncludeItems | IncludeCooldowns
	IncludeCached              = IncludeItems | IncludeCooldowns | IncludeRequirements
	IncludeGiveable            = IncludeItems
)

func (i KitInclude) Has(flag KitInclude) bool { return i&flag != 0 }
