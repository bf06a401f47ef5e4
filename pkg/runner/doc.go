/*
Package runner executes synthesized plans against a system under test.

A Harness creates one fresh subject per plan through a ports.SubjectFactory, asserts the
initial state, then performs each step and asserts the state it arrives at. The first
failing step short-circuits its plan; other plans are unaffected. Plans may run in
parallel workers because subjects never share state.

Assertions are chained: arriving at a nested state runs the hooks of its ancestors first,
from the outermost state inwards.
*/
package runner
