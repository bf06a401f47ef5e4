/*
Package ports defines the driven ports (interfaces) of the espalier engine.

These interfaces decouple the core from the system under test and from persistence,
so the same generated plans can drive a headless page, an HTTP API or any other subject.

# Key Interfaces

  - SubjectFactory: provides a fresh, isolated subject for every Plan.
  - Executor: performs an event against a subject, blocking until its effect has settled.
  - Observer: supplies the read-only View passed to assertion hooks.
  - ReportStore: persists run reports (not machine state).
  - Locker: serializes runs sharing one system under test.
*/
package ports
