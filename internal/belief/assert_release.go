//go:build !beliefdebug

package belief

const debugAssertions = false
