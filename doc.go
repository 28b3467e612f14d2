// Package switchyard plans and maintains a graph of media transformation
// elements. Given input endpoints carrying typed streams, output endpoints
// demanding typed streams and a catalog of single-input/single-output
// transformation factories, the Bin searches for the cheapest set of
// element chains, with fan-out off shared intermediate results, that
// delivers every output from some input. When the configuration changes it
// drains the running graph and swaps in the replacement atomically.
//
// The host media framework (pads, elements, negotiation) and the
// per-domain policy (catalog, costs, route vetoes) are supplied through
// the interfaces in pkg/ports; pkg/adapters/memory carries a complete
// in-process host for embedding and tests.
package switchyard
