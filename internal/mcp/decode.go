package mcp

import (
	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rotisserie/eris"
)

// decode unmarshals MCP request arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := sonic.Marshal(req.GetArguments())
	if err != nil {
		return result, eris.Wrap(err, "marshal args")
	}
	if err := sonic.Unmarshal(b, &result); err != nil {
		return result, eris.Wrap(err, "unmarshal args")
	}
	return result, nil
}
