package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// claudeLine is the union of shapes seen in claude's --output-format
// stream-json NDJSON output. Only the fields this adapter acts on are kept.
type claudeLine struct {
	Type             string          `json:"type"`
	SessionID        string          `json:"session_id"`
	Message          *claudeMessage  `json:"message"`
	ContentBlock     *claudeBlock    `json:"content_block"`
	Delta            *claudeDelta    `json:"delta"`
	ToolName         string          `json:"tool_name"`
	ToolInput        json.RawMessage `json:"tool_input"`
	ToolResult       string          `json:"tool_result"`
	Result           json.RawMessage `json:"result"`
	StructuredOutput json.RawMessage `json:"structured_output"`
}

type claudeMessage struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

type claudeBlock struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type claudeDelta struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

// finalResult is the terminal payload of a claude stream-json run: either
// result or structured_output (when --json-schema was passed), keyed by
// session so the caller can resume it.
type finalResult struct {
	SessionID string
	Payload   json.RawMessage
	found     bool
}

// scanClaudeStream reads NDJSON lines from r, forwarding progress through
// emit and returning the terminal result event once type=="result" arrives.
// Blank lines and lines that fail to parse as claudeLine are skipped rather
// than treated as fatal: the stream-json format is not versioned, so an
// adapter built against one CLI release should degrade gracefully against
// another rather than aborting the whole run over one unexpected line.
func scanClaudeStream(r io.Reader, emit func(StreamEvent)) (finalResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var final finalResult
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ev claudeLine
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		dispatchClaudeLine(ev, emit)
		if ev.Type == "result" {
			payload := ev.StructuredOutput
			if len(payload) == 0 {
				payload = ev.Result
			}
			if len(payload) > 0 {
				final = finalResult{SessionID: ev.SessionID, Payload: payload, found: true}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return final, err
	}
	return final, nil
}

// codexLine is the union of shapes seen in codex's `exec --json` NDJSON
// output. Codex nests progress under "item" rather than content blocks.
type codexLine struct {
	Type     string     `json:"type"`
	ThreadID string     `json:"thread_id"`
	Item     *codexItem `json:"item"`
	Error    *codexErr  `json:"error"`
	Message  string     `json:"message"`
}

type codexItem struct {
	Type    string `json:"item_type"`
	Text    string `json:"text"`
	Name    string `json:"name"`
	Command string `json:"command"`
	Output  string `json:"output"`
}

type codexErr struct {
	Message string `json:"message"`
}

// scanCodexStream mirrors scanClaudeStream for codex's event shape. The
// terminal payload arrives as the text of a completed "agent_message" item,
// itself a JSON string that must be unmarshaled a second time.
func scanCodexStream(r io.Reader, emit func(StreamEvent)) (finalResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var final finalResult
	var threadID string
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var ev codexLine
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.ThreadID != "" {
			threadID = ev.ThreadID
		}

		switch ev.Type {
		case "thread.started":
			emit(StreamEvent{Kind: StreamThinking, Text: "starting..."})
		case "turn.started":
			emit(StreamEvent{Kind: StreamThinking, Text: "processing..."})
		case "turn.failed":
			reason := "unknown error"
			if ev.Error != nil && ev.Error.Message != "" {
				reason = ev.Error.Message
			}
			return final, fmt.Errorf("codex turn failed: %s", reason)
		case "error":
			return final, fmt.Errorf("codex: %s", ev.Message)
		case "item.started", "item.updated", "item.completed":
			if ev.Item == nil {
				continue
			}
			completed := ev.Type == "item.completed"
			if payload, ok := dispatchCodexItem(ev.Item, completed, emit); ok {
				final = finalResult{SessionID: threadID, Payload: payload, found: true}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return final, err
	}
	return final, nil
}

func dispatchCodexItem(item *codexItem, completed bool, emit func(StreamEvent)) (json.RawMessage, bool) {
	switch item.Type {
	case "reasoning":
		if item.Text != "" {
			emit(StreamEvent{Kind: StreamThinking, Text: item.Text})
		}
	case "agent_message":
		if !completed {
			if item.Text != "" {
				emit(StreamEvent{Kind: StreamThinking, Text: item.Text})
			}
			return nil, false
		}
		if item.Text == "" {
			return nil, false
		}
		if json.Valid([]byte(item.Text)) {
			emit(StreamEvent{Kind: StreamText, Text: "review completed"})
			return json.RawMessage(item.Text), true
		}
		emit(StreamEvent{Kind: StreamText, Text: item.Text})
	case "function_call", "command":
		name := item.Name
		if name == "" {
			name = item.Command
		}
		if name == "" {
			name = "tool"
		}
		if completed {
			emit(StreamEvent{Kind: StreamToolResult, Text: name})
		} else {
			emit(StreamEvent{Kind: StreamToolUse, Text: name})
		}
	}
	return nil, false
}

func dispatchClaudeLine(ev claudeLine, emit func(StreamEvent)) {
	switch ev.Type {
	case "assistant":
		if ev.Message == nil {
			return
		}
		for _, c := range ev.Message.Content {
			switch c.Type {
			case "thinking":
				emit(StreamEvent{Kind: StreamThinking, Text: c.Thinking})
			case "text":
				emit(StreamEvent{Kind: StreamText, Text: c.Text})
			}
		}
	case "content_block_start":
		if ev.ContentBlock == nil {
			return
		}
		switch ev.ContentBlock.Type {
		case "tool_use":
			emit(StreamEvent{Kind: StreamToolUse, Text: ev.ContentBlock.Name})
		case "thinking":
			emit(StreamEvent{Kind: StreamThinking, Text: "thinking..."})
		}
	case "content_block_delta":
		if ev.Delta == nil {
			return
		}
		switch ev.Delta.Type {
		case "thinking_delta":
			emit(StreamEvent{Kind: StreamThinking, Text: ev.Delta.Thinking})
		case "text_delta":
			emit(StreamEvent{Kind: StreamText, Text: ev.Delta.Text})
		}
	case "tool_use":
		if ev.ToolName != "" {
			emit(StreamEvent{Kind: StreamToolUse, Text: ev.ToolName})
		}
	case "tool_result":
		if ev.ToolName != "" {
			emit(StreamEvent{Kind: StreamToolResult, Text: ev.ToolName})
		}
	}
}
