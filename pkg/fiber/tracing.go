package fiber

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// trace opens a span covering a render request. It ends when note resolves.
func (s *Scheduler) trace(inst *Instance, note *Notification, name string, force bool) {
	_, span := s.tracer.Start(s.ctx, name, trace.WithAttributes(
		attribute.String("fibre.component", inst.Name()),
		attribute.Int64("fibre.instance", int64(inst.id)),
		attribute.Bool("fibre.force", force),
	))
	note.onResolve(func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	})
}
