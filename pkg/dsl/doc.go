/*
Package dsl provides a Go DSL for programmatically describing espalier machines.

Machines are authored hierarchically with a fluent builder and compiled into the flat
domain.Machine table the graph package consumes. Guard order is preserved exactly as
declared: the first matching guard of a transition selects its target.

Example usage:

	b := dsl.New("door")

	b.State("closed").Initial().
		On("OPEN", dsl.Go("opened")).
		Assert(assertClosed)

	b.State("opened").
		On("CLOSE", dsl.When("not locked", notLocked, "closed")).
		On("BREAK", dsl.Go("broken"))

	b.State("broken").Final()

	machine, err := b.Build()
*/
package dsl
