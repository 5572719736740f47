package hfsm

// Policy is one link in a Pipeline, the chain-of-responsibility spec
// §4.6 describes: outbound events (application -> transport) travel
// through policies in registration order; inbound events (transport ->
// application) travel the reverse order. A Policy that wants to forward
// an event to the next link calls Pipeline.ContinueOutbound /
// ContinueInbound itself, so it can also choose to transform, drop, or
// duplicate the event instead of forwarding it unchanged.
type Policy interface {
	// Outbound handles an event traveling toward the transport. idx is
	// this policy's own index in the pipeline, for use in the
	// pl.ContinueOutbound(idx+1, e) call that forwards to the next link.
	Outbound(pl *Pipeline, idx int, e Event)
	// Inbound handles an event traveling toward the application.
	Inbound(pl *Pipeline, idx int, e Event)
}

// Pipeline is an ordered chain of Policy links sitting between the
// application (index -1, conceptually) and the transport (index
// len(policies)). Policies are deliberately synchronous: a Pipeline runs
// on the same single thread as the Machine it feeds, per spec §5.
type Pipeline struct {
	policies []Policy
}

// NewPipeline builds a Pipeline from policies in application-to-transport
// order: policies[0] sees outbound events first and inbound events last.
func NewPipeline(policies ...Policy) *Pipeline {
	return &Pipeline{policies: policies}
}

// PostOutbound starts e traveling outbound from the application side,
// i.e. through policies[0].
func (pl *Pipeline) PostOutbound(e Event) {
	pl.ContinueOutbound(0, e)
}

// PostInbound starts e traveling inbound from the transport side, i.e.
// through the last policy first.
func (pl *Pipeline) PostInbound(e Event) {
	pl.ContinueInbound(len(pl.policies)-1, e)
}

// ContinueOutbound forwards e to policies[idx], or drops it silently if
// idx has run off the end of the chain (the transport adapter is
// expected to be the actual sink; a Pipeline with no policies is a valid,
// if useless, configuration).
func (pl *Pipeline) ContinueOutbound(idx int, e Event) {
	if idx < 0 || idx >= len(pl.policies) {
		return
	}
	pl.policies[idx].Outbound(pl, idx, e)
}

// ContinueInbound forwards e to policies[idx], walking toward index 0
// (the application).
func (pl *Pipeline) ContinueInbound(idx int, e Event) {
	if idx < 0 || idx >= len(pl.policies) {
		return
	}
	pl.policies[idx].Inbound(pl, idx, e)
}

// Len reports how many policies are chained.
func (pl *Pipeline) Len() int { return len(pl.policies) }
