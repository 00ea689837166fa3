// Package fiber schedules component renders and commits them to a document.
//
// A Scheduler owns a document and runs every render, commit and event
// handler on a single loop goroutine. Requesting a render on an Instance
// creates a fiber: a unit of pending work holding the freshly rendered tree
// of one component. Child components re-rendered as part of the same request
// get child fibers, and the whole tree is applied in one DOM batch once every
// fiber in it has rendered.
//
// A newer request on an instance whose render is still in flight supersedes
// the older one. Superseded fibers never reach the document and run no
// lifecycle hooks; callers waiting on them are notified when the newer render
// commits.
//
//	s := fiber.NewScheduler(doc, fiber.WithLogger(logger))
//	defer s.Close()
//
//	app, done := s.Mount(fiber.Func(counter), nil, doc.Body())
//	if err := done.Wait(ctx); err != nil {
//		return err
//	}
//	app.Render(false)
package fiber
