/*
Package domain contains the core model types of the espalier test-generation engine.

It defines the declarative machine description (states, events, guarded transitions),
the planning artifacts derived from it (Paths and Plans) and the execution outcomes
recorded by the harness. This package is kept pure and free of I/O so that every other
layer (graph, planner, synthesizer, runner, adapters) can depend on it.

# Key Entities

  - Machine: the flat table of StateDefs, TransitionDefs and EventDefs authored by the user.
  - Guard / Candidate: ordered, first-match-wins predicates selecting a transition target.
  - Path: a shortest simple sequence of steps from the initial state to one leaf state.
  - Plan: a Path with one concrete payload Case bound to every step's event.
  - Outcome: the Passed/Failed/Skipped result of executing (or rejecting) a Plan.
*/
package domain
