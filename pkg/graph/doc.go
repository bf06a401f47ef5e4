/*
Package graph builds the immutable StateGraph of an espalier machine.

Build validates the machine description (unknown targets, initial state, final states,
hierarchy), resolves compound targets to their initial leaves, indexes the ordered
(guard, target) candidates per (state, event) key, and computes reachability from the
initial state. Unreachable states are reported as warnings, never as errors.
*/
package graph
