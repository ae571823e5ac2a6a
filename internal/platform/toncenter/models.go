package toncenter

import (
	"encoding/json"
	"errors"
)

// envelope is the common response wrapper shared by all toncenter-style methods.
type envelope struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type masterchainInfo struct {
	Last struct {
		Seqno int64 `json:"seqno"`
	} `json:"last"`
}

// RunResult is the decoded payload of a runGetMethod call. ExitCode is a
// pointer because the field may be absent from otherwise valid responses.
type RunResult struct {
	ExitCode *int        `json:"exit_code"`
	Stack    []StackItem `json:"stack"`
}

// StackItem is one TVM stack entry, serialized upstream as a [type, value]
// array. Value stays raw because its shape depends on Type.
type StackItem struct {
	Type  string
	Value json.RawMessage
}

func (s *StackItem) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) == 0 {
		return errors.New("empty stack entry")
	}
	if err := json.Unmarshal(parts[0], &s.Type); err != nil {
		return err
	}
	if len(parts) > 1 {
		s.Value = parts[1]
	}
	return nil
}

// Num returns the value of a "num" entry as its string form.
func (s StackItem) Num() (string, bool) {
	if s.Type != "num" || s.Value == nil {
		return "", false
	}
	var v string
	if err := json.Unmarshal(s.Value, &v); err != nil {
		return "", false
	}
	return v, true
}

// CellBytes returns the base64 boc of a "cell" entry. The bool reports whether
// a bytes field was present at all; an empty string is still a present value
// and gets rejected later by the boc parser.
func (s StackItem) CellBytes() (string, bool) {
	if s.Type != "cell" || s.Value == nil {
		return "", false
	}
	var v map[string]json.RawMessage
	if err := json.Unmarshal(s.Value, &v); err != nil {
		return "", false
	}
	raw, ok := v["bytes"]
	if !ok {
		return "", false
	}
	var b string
	if err := json.Unmarshal(raw, &b); err != nil {
		return "", false
	}
	return b, true
}
