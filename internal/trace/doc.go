// Package trace records what the refactoring pipeline does.
//
// Events are grouped by scope (driver, pass, tweak, node) and filtered by a
// level. A run usually builds one Tracer from the CLI flags and hands it down
// through a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "parse", 0)
//	defer span.End("")
//
// Stream tracers write every event as it happens (text or NDJSON). Ring
// tracers keep the last N events in memory so they can be dumped when a
// command fails.
package trace
