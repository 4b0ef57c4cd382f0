package sim

import "strings"

// StorageTrace is an ordered sequence of storages accessed by a process
// within a single cycle. It is not comparable with ==; a [StorageTraceSet]
// keys its members by a string rendering of the storage names instead.
type StorageTrace struct {
	storages []Storage
}

// Append returns a new trace with s appended to the end.
func (t StorageTrace) Append(s Storage) StorageTrace {
	next := make([]Storage, len(t.storages), len(t.storages)+1)
	copy(next, t.storages)
	return StorageTrace{storages: append(next, s)}
}

// Empty reports whether the trace has no elements.
func (t StorageTrace) Empty() bool { return len(t.storages) == 0 }

// key renders the trace into a value comparable with ==, for set membership.
func (t StorageTrace) key() string {
	var b strings.Builder
	for i, s := range t.storages {
		if i > 0 {
			b.WriteByte('\x00')
		}
		b.WriteString(s.Name())
	}
	return b.String()
}

// String implements fmt.Stringer.
func (t StorageTrace) String() string {
	names := make([]string, len(t.storages))
	for i, s := range t.storages {
		names[i] = s.Name()
	}
	return "[" + strings.Join(names, " -> ") + "]"
}

// concat returns the trace formed by following a with b.
func concat(a, b StorageTrace) StorageTrace {
	out := make([]Storage, 0, len(a.storages)+len(b.storages))
	out = append(out, a.storages...)
	out = append(out, b.storages...)
	return StorageTrace{storages: out}
}

// StorageTraceSet is the set of storage-access traces a process is allowed
// to produce in a cycle, built up with the combinators Union ("^" in the
// original notation), Then ("*", a cartesian/sequential concatenation) and
// [Opt].
//
// A process declares one of these at construction; the kernel checks the
// trace it actually produced each cycle against it to catch components
// that access storages their authors never accounted for.
type StorageTraceSet struct {
	traces map[string]StorageTrace
}

// NewStorageTraceSet returns the set containing exactly the single-element
// trace {s}.
func NewStorageTraceSet(s Storage) StorageTraceSet {
	t := StorageTrace{storages: []Storage{s}}
	return StorageTraceSet{traces: map[string]StorageTrace{t.key(): t}}
}

// emptyTraceSet is the set containing only the empty trace.
func emptyTraceSet() StorageTraceSet {
	t := StorageTrace{}
	return StorageTraceSet{traces: map[string]StorageTrace{t.key(): t}}
}

// Union returns the set of traces from either a or b.
func (a StorageTraceSet) Union(b StorageTraceSet) StorageTraceSet {
	out := make(map[string]StorageTrace, len(a.traces)+len(b.traces))
	for k, v := range a.traces {
		out[k] = v
	}
	for k, v := range b.traces {
		out[k] = v
	}
	return StorageTraceSet{traces: out}
}

// Then returns the cartesian/sequential concatenation of a followed by b:
// every trace in a, followed by every trace in b. An empty operand acts as
// the identity, returning the other operand unchanged.
func (a StorageTraceSet) Then(b StorageTraceSet) StorageTraceSet {
	if len(b.traces) == 0 {
		return a
	}
	if len(a.traces) == 0 {
		return b
	}
	out := make(map[string]StorageTrace, len(a.traces)*len(b.traces))
	for _, ta := range a.traces {
		for _, tb := range b.traces {
			c := concat(ta, tb)
			out[c.key()] = c
		}
	}
	return StorageTraceSet{traces: out}
}

// Opt returns s with the empty trace added as an alternative, meaning the
// traces in s are optional.
func Opt(s StorageTraceSet) StorageTraceSet {
	return s.Union(emptyTraceSet())
}

// Contains reports whether t is a member of the set. An uninitialized
// (zero-value) set accepts every trace: a process that declared no storage
// traces at all is not checked.
func (a StorageTraceSet) Contains(t StorageTrace) bool {
	if len(a.traces) == 0 {
		return true
	}
	_, ok := a.traces[t.key()]
	return ok
}
