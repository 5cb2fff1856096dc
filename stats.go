package kati

import "sync/atomic"

// Stats holds lightweight process-wide counters, kept on SharedContext.Stats;
// nothing in gokati logs or prints them. gokati carries no dedicated
// profiling report (spec.md excludes a
// profiling subsystem from the core), but the counters themselves are cheap
// ambient instrumentation, grounded on original_source/src-rs/stats.rs.
type Stats struct {
	ShellInvocations   int64
	GlobCacheHits      int64
	GlobCacheMisses    int64
	WildcardCalls      int64
	RecursionGuardTrips int64
	MakefileReads      int64
}

func (s *Stats) incShell()       { atomic.AddInt64(&s.ShellInvocations, 1) }
func (s *Stats) incGlobHit()     { atomic.AddInt64(&s.GlobCacheHits, 1) }
func (s *Stats) incGlobMiss()    { atomic.AddInt64(&s.GlobCacheMisses, 1) }
func (s *Stats) incWildcard()    { atomic.AddInt64(&s.WildcardCalls, 1) }
func (s *Stats) incRecursionTrip() { atomic.AddInt64(&s.RecursionGuardTrips, 1) }
func (s *Stats) incMakefileRead() { atomic.AddInt64(&s.MakefileReads, 1) }
