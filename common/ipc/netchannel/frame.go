package netchannel

import (
	"encoding/json"
)

type (
	// callFrame is one invocation as it travels over the socket. Frames are
	// newline-delimited JSON. The expected interface name rides along on
	// every call so the serving side can reject proxies it never exported.
	callFrame struct {
		ID        string          `json:"id"`
		Interface string          `json:"iface"`
		Method    string          `json:"method"`
		Args      json.RawMessage `json:"args,omitempty"`
	}

	replyFrame struct {
		ID     string          `json:"id"`
		Result json.RawMessage `json:"result,omitempty"`
		Error  string          `json:"error,omitempty"`
	}
)
