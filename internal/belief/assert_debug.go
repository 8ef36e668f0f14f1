//go:build beliefdebug

package belief

// Built with -tags beliefdebug, a degenerate vector panics instead of
// falling back to uniform.
const debugAssertions = true
