package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/martinemde/parley/agentchat"
	"github.com/martinemde/parley/enginellm"
)

func registerClock(reg *agentchat.ToolRegistry, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	reg.Register(agentchat.RegisteredTool{
		Definition: enginellm.ToolDefinition{
			Name:        "clock",
			Description: "Report the current date and time, optionally in a named IANA time zone.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"timezone": map[string]interface{}{
						"type":        "string",
						"description": "IANA time zone name, e.g. \"America/New_York\". Defaults to UTC.",
					},
				},
			},
		},
		Executor: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			args, err := agentchat.ParseToolArguments(arguments)
			if err != nil {
				return "", err
			}

			loc := time.UTC
			if tz, ok := agentchat.GetStringArg(args, "timezone"); ok && tz != "" {
				loc, err = time.LoadLocation(tz)
				if err != nil {
					return "", fmt.Errorf("unknown time zone %q", tz)
				}
			}
			return now().In(loc).Format("Monday, 2 January 2006 15:04:05 MST"), nil
		},
	})
}
