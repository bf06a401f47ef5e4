/*
Package espalier is a model-based test generation engine.

A system's behaviour is described once as a hierarchical finite state machine: states,
events and guarded transitions, with an assertion hook per state describing what must be
observable while the system is in it. espalier derives the test suite from that model:

  - the planner finds one shortest path from the initial state to every reachable state;
  - the synthesizer expands each path into concrete plans, one per combination of the
    representative payloads ("cases") declared for parameterized events;
  - the harness drives a fresh system under test through every plan, asserting each
    state along the way, and the reporter aggregates the outcomes.

# Usage

	b := dsl.New("door")
	b.State("closed").Initial().Assert(assertClosed).On("OPEN", dsl.Go("opened"))
	b.State("opened").Assert(assertOpened).On("CLOSE", dsl.Go("closed"))

	model, err := espalier.New(b.MustBuild())
	if err != nil {
		log.Fatal(err)
	}

	rep, err := model.Run(ctx, ports.SubjectFactoryFunc(newDoor))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(rep.Markdown())

Guards are evaluated in declaration order and the first match wins, so the same model
always yields the same paths, the same plans and, for a deterministic subject, the same
report.
*/
package espalier
