/*
Package synth turns planned Paths into executable Plans.

Expand binds one representative payload Case to every occurrence of a parameterized
event along a Path, producing the full cross-product of cases per path. Resolve then
replays each Plan's payloads through the guard evaluator so only plans whose concrete
payloads actually select the planned targets are handed to the runner; the others are
returned as Rejections.
*/
package synth
