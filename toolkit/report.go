package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinemde/parley/agentchat"
	"github.com/martinemde/parley/enginellm"
)

func registerReportBuilder(reg *agentchat.ToolRegistry) {
	reg.Register(agentchat.RegisteredTool{
		Definition: enginellm.ToolDefinition{
			Name:        "report_builder",
			Description: "Assemble a Markdown report from a title and a list of sections.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Report title.",
					},
					"sections": map[string]interface{}{
						"type":        "array",
						"description": "Ordered report sections.",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"heading": map[string]interface{}{"type": "string"},
								"body":    map[string]interface{}{"type": "string"},
							},
							"required": []string{"heading", "body"},
						},
					},
				},
				"required": []string{"title", "sections"},
			},
		},
		Executor: func(ctx context.Context, arguments json.RawMessage) (string, error) {
			var req struct {
				Title    string `json:"title"`
				Sections []struct {
					Heading string `json:"heading"`
					Body    string `json:"body"`
				} `json:"sections"`
			}
			if err := json.Unmarshal(arguments, &req); err != nil {
				return "", fmt.Errorf("invalid tool arguments: %w", err)
			}
			if strings.TrimSpace(req.Title) == "" {
				return "", fmt.Errorf("title is required")
			}
			if len(req.Sections) == 0 {
				return "", fmt.Errorf("at least one section is required")
			}

			var b strings.Builder
			fmt.Fprintf(&b, "# %s\n", req.Title)
			for _, section := range req.Sections {
				fmt.Fprintf(&b, "\n## %s\n\n%s\n", section.Heading, section.Body)
			}
			return b.String(), nil
		},
	})
}
