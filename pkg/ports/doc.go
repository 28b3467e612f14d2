// Package ports defines the boundary contracts of the switchyard core: the
// host media framework (pads, elements, factories, splitter and null-sink
// provisioning), the policy hook record, and the plan store used for
// caching planning results. The core depends only on these interfaces;
// adapters provide the implementations.
package ports
