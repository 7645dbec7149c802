package procglue

// AddressSpace is the minimal page-table/mm capability the clone path uses:
// the ability to fork a copy-on-write child on clone. It is not used by
// pkg/executor, whose AddressSpaceSwitcher is a separate hook, and it does
// not record which space belongs to a task. The actual page tables are
// entirely out of this repository's scope (spec.md's persisted/paged state
// non-goal); this interface exists only so pkg/procglue's clone path has
// somewhere to call through to.
type AddressSpace interface {
	// Fork returns a new AddressSpace for a cloned task. shared reports
	// whether the clone requested CLONE_VM-style sharing (fork() vs a
	// thread clone): when shared is true implementations should return
	// themselves rather than a true copy.
	Fork(shared bool) AddressSpace
}

// NullAddressSpace is a no-op AddressSpace for kernel-only tasks (those
// with no TrapFrame) that never need a page table switch.
type NullAddressSpace struct{}

func (NullAddressSpace) Fork(bool) AddressSpace { return NullAddressSpace{} }
