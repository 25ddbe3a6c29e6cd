package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to ctx.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type spanKey struct{}

// SpanFromContext returns the active span, or a disabled one.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return &Span{}
	}
	if s, ok := ctx.Value(spanKey{}).(*Span); ok && s != nil {
		return s
	}
	return &Span{}
}

// WithSpan makes s the parent for spans started from ctx.
func WithSpan(ctx context.Context, s *Span) context.Context {
	return context.WithValue(ctx, spanKey{}, s)
}

// Start begins a span that is a child of the span stored in ctx, if any,
// and returns a context carrying the new span.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	var s *Span
	if parent.tracer != nil {
		s = parent.Child(scope, name)
	} else {
		s = Begin(FromContext(ctx), scope, name, 0)
	}
	return WithSpan(ctx, s), s
}
