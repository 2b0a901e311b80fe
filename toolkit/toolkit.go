// Package toolkit provides the built-in tools offered to the completion
// engine: a calculator, a glossary lookup, a Markdown report builder,
// and a clock. Tools are pure over their inputs apart from the clock,
// whose time source can be injected for tests.
package toolkit

import (
	"time"

	"github.com/martinemde/parley/agentchat"
)

// Options configures the built-in tool set.
type Options struct {
	// Glossary backs the glossary tool. Nil installs an empty glossary.
	Glossary *Glossary

	// Now overrides the clock tool's time source.
	Now func() time.Time
}

// RegisterBuiltins registers all built-in tools on a registry.
func RegisterBuiltins(reg *agentchat.ToolRegistry, opts Options) {
	if opts.Glossary == nil {
		opts.Glossary = NewGlossary(nil)
	}
	registerCalculator(reg)
	registerGlossary(reg, opts.Glossary)
	registerReportBuilder(reg)
	registerClock(reg, opts.Now)
}
