package domain

// DefaultMaxChainLength bounds the number of transformation elements the
// chain enumerator will line up between an input and an output. Chains
// longer than this are never proposed.
const DefaultMaxChainLength = 4
