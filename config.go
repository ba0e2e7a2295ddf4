package activepool

import "github.com/flint-systems/activepool/core"

// Config is the frozen configuration of a Pool. See core.Config for field
// documentation.
type Config = core.Config

// WorkerPriority is the OS-scheduling priority hint for a pool's worker
// threads.
type WorkerPriority = core.WorkerPriority

// Worker priority levels, Normal is the default.
const (
	PriorityLow         = core.PriorityLow
	PriorityNormal      = core.PriorityNormal
	PriorityAboveNormal = core.PriorityAboveNormal
	PriorityHigh        = core.PriorityHigh
	PriorityRealtime    = core.PriorityRealtime
)

// DefaultConfig returns a Config with every field set to its documented
// default, sized from the logical CPU count.
func DefaultConfig() Config {
	return core.DefaultConfig()
}
