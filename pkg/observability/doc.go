/*
Package observability turns harness lifecycle hooks into logs and Prometheus metrics.

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := domain.MergeHooks(observability.LoggingHooks(logger), m.Hooks())
	model, _ := espalier.New(machine, espalier.WithLifecycleHooks(hooks))
*/
package observability
