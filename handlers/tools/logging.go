package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mdmail/utils"
)

// logged records every call of a tool with its arguments and outcome
func logged[In any](name string, handler mcp.ToolHandlerFor[In, any]) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		log := utils.Log.WithField("tool", name)
		log.Info("Calling %s with %+v", name, in)

		result, out, err := handler(ctx, req, in)
		if err != nil {
			log.Error("%s failed: %v", name, err)
			return result, out, err
		}

		log.Info("%s returned %s", name, resultText(result))
		return result, out, nil
	}
}

func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
