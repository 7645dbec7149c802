package scheduler

// HWOption configures an HWScheduler, grounded on the reference event
// loop's options.go functional-options pattern.
type HWOption func(*hwOptions)

type hwOptions struct {
	loadBalancedOSTask bool
	physicalOffset     uint64
}

// WithLoadBalancedOSTask opts a hart's HWScheduler into sharing a single OS
// task binding across all harts (spec.md §4.2: "Under a load-balanced
// build flag, all harts share the same OS task"). Without this option each
// hart binds its own sentinel OS task, resolving the open question raised
// in spec.md §9.
func WithLoadBalancedOSTask() HWOption {
	return func(o *hwOptions) { o.loadBalancedOSTask = true }
}

// WithPhysicalOffset sets the fixed virtual-to-physical pointer offset used
// when packing/unpacking task ids for the hardware queue.
func WithPhysicalOffset(offset uint64) HWOption {
	return func(o *hwOptions) { o.physicalOffset = offset }
}
