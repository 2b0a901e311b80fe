package agentchat

import (
	"fmt"
	"strings"
)

// TruncationMode specifies how oversized tool output is cut down before
// it is fed back to the engine. The event stream always carries the full
// output; truncation applies only to the engine-facing copy.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// DefaultToolCharLimits holds per-tool character limits for engine-facing
// tool results.
var DefaultToolCharLimits = map[string]int{
	"calculator":     2000,
	"glossary":       8000,
	"report_builder": 20000,
	"clock":          1000,
}

// DefaultTruncationModes holds per-tool truncation modes.
var DefaultTruncationModes = map[string]TruncationMode{
	"calculator":     TruncateTail,
	"glossary":       TruncateHeadTail,
	"report_builder": TruncateHeadTail,
	"clock":          TruncateTail,
}

// DefaultToolLineLimits holds per-tool line limits, applied after
// character truncation.
var DefaultToolLineLimits = map[string]int{
	"glossary":       120,
	"report_builder": 400,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars
	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[Tool output truncated. First %d characters were removed.]\n\n", removed) +
			output[len(output)-maxChars:]
	default:
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[Tool output truncated. %d characters were removed from the middle. "+
				"Re-run the tool with more targeted parameters if you need the full output.]\n\n", removed) +
			output[len(output)-half:]
	}
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the full truncation pipeline for a tool:
// character truncation first, then line truncation for readability.
func TruncateToolOutput(output, toolName string, charLimits, lineLimits map[string]int) string {
	maxChars, ok := charLimits[toolName]
	if !ok {
		maxChars, ok = DefaultToolCharLimits[toolName]
		if !ok {
			maxChars = 10000
		}
	}

	mode, ok := DefaultTruncationModes[toolName]
	if !ok {
		mode = TruncateHeadTail
	}

	result := TruncateOutput(output, maxChars, mode)

	maxLines := 0
	if lineLimits != nil {
		if ml, ok := lineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines == 0 {
		if ml, ok := DefaultToolLineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines > 0 {
		result = TruncateLines(result, maxLines)
	}

	return result
}
