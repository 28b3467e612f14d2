package ports

import "github.com/aretw0/switchyard/pkg/caps"

// Host supplies the framework facilities the instantiator and the chain
// tester cannot provide themselves.
type Host interface {
	// TeeFactory returns the splitter factory: one sink pad, request src
	// pads fanning the stream out unchanged.
	TeeFactory() ElementFactory

	// NullSinkFactory returns the factory terminating otherwise
	// unconnected input endpoints.
	NullSinkFactory() ElementFactory

	// NewProbeSink returns a standalone sink pad advertising accepted as
	// its acceptable caps. The chain tester links it downstream of a
	// candidate chain to stand in for the eventual consumer.
	NewProbeSink(accepted caps.Caps) Pad
}
