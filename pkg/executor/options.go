package executor

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithAddressSpace installs the hook run_task uses to switch address spaces
// before polling a user task (spec.md §4.4 step 2).
func WithAddressSpace(a AddressSpaceSwitcher) Option {
	return func(e *Executor) { e.AddrSpace = a }
}

// WithStackRestorer installs the thread-style suspension hook of spec.md
// §4.6. Only meaningful for tasks that carry a non-nil Stack.
func WithStackRestorer(r StackRestorer) Option {
	return func(e *Executor) { e.Stacks = r }
}

// apply is a small helper so New can take variadic options without every
// caller needing to remember the order New/options were introduced in.
func (e *Executor) apply(opts []Option) {
	for _, opt := range opts {
		opt(e)
	}
}
