package mcp

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/dermwatch/internal/session"
)

// newEmptyServer creates a Server over an empty store with no session.
func newEmptyServer(t *testing.T) *Server {
	t.Helper()
	env := newTestEnv(t)
	return NewServer(env.dispatcher, nil, "test")
}

// runServer starts s.Run in a goroutine piped through pw/pr and returns
// a function that writes a request line and reads the response line.
// Close pw to trigger EOF. The returned cleanup func cancels the context.
func runServer(t *testing.T, s *Server) (
	sendLine func(line string) string,
	closePipe func(),
	cleanup func(),
) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	// Pipe: test writes to pw, server reads from pr.
	pr, pw := io.Pipe()
	// Pipe: server writes to sw, test reads from sr.
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	sendLine = func(line string) string {
		_, err := io.WriteString(pw, line+"\n")
		if err != nil {
			t.Fatalf("sendLine write: %v", err)
		}

		// Read one response line.
		buf := make([]byte, 1<<16)
		var out strings.Builder
		for {
			n, err := sr.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				s := out.String()
				if idx := strings.IndexByte(s, '\n'); idx >= 0 {
					return s[:idx]
				}
			}
			if err != nil {
				t.Fatalf("sendLine read: %v", err)
			}
		}
	}

	closePipe = func() {
		_ = pw.Close()
	}

	cleanup = func() {
		cancel()
		_ = pw.Close()
		// Drain done channel.
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel+close")
		}
	}

	return sendLine, closePipe, cleanup
}

// TestRun_Initialize verifies the server responds to "initialize" with the
// correct protocolVersion and serverInfo.name.
func TestRun_Initialize(t *testing.T) {
	s := newEmptyServer(t)
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	resp := sendLine(req)

	var parsed struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Result.ProtocolVersion == "" {
		t.Errorf("expected non-empty protocolVersion, got empty string; response: %s", resp)
	}
	if parsed.Result.ServerInfo.Name != "dermwatch" {
		t.Errorf("expected serverInfo.name == 'dermwatch', got %q; response: %s",
			parsed.Result.ServerInfo.Name, resp)
	}
}

// TestRun_ToolsList verifies the server lists every registered tool with a
// generated object schema.
func TestRun_ToolsList(t *testing.T) {
	s := newEmptyServer(t)
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
	resp := sendLine(req)

	var parsed struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Type string `json:"type"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}

	want := []string{"search_records", "get_today_records", "get_statistics", "trigger_ai_analysis", "get_usage", "add_record"}
	if len(parsed.Result.Tools) != len(want) {
		t.Fatalf("expected %d tools, got %d; response: %s", len(want), len(parsed.Result.Tools), resp)
	}
	for i, tool := range parsed.Result.Tools {
		if tool.Name != want[i] {
			t.Errorf("tool %d = %q, want %q", i, tool.Name, want[i])
		}
		if tool.InputSchema.Type != "object" {
			t.Errorf("tool %s schema type = %q, want object", tool.Name, tool.InputSchema.Type)
		}
	}
}

// toolsCallText sends a tools/call and returns the isError flag and the
// decoded envelope.
func toolsCallText(t *testing.T, sendLine func(string) string, id int, name, args string) (bool, map[string]any) {
	t.Helper()
	req := `{"jsonrpc":"2.0","id":` + strings.TrimSpace(jsonInt(id)) + `,"method":"tools/call","params":{"name":"` + name + `","arguments":` + args + `}}`
	resp := sendLine(req)

	var parsed struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if len(parsed.Result.Content) != 1 {
		t.Fatalf("expected one content item; response: %s", resp)
	}
	var env map[string]any
	if err := json.Unmarshal([]byte(parsed.Result.Content[0].Text), &env); err != nil {
		t.Fatalf("tool text is not JSON: %v", err)
	}
	return parsed.Result.IsError, env
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// TestRun_ToolsCall_NoSession verifies identity-bound tools fail with a
// NotAuthenticated envelope when the server has no session.
func TestRun_ToolsCall_NoSession(t *testing.T) {
	s := newEmptyServer(t)
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	isError, env := toolsCallText(t, sendLine, 4, "search_records", `{}`)
	if !isError {
		t.Error("expected isError for unauthenticated call")
	}
	if env["success"] != false || env["error"] != "User not logged in" || env["error_kind"] != "NotAuthenticated" {
		t.Errorf("unexpected envelope: %v", env)
	}
}

// TestRun_ToolsCall_WithSession verifies a tool call succeeds for the
// server's fixed session.
func TestRun_ToolsCall_WithSession(t *testing.T) {
	env := newTestEnv(t)
	s := NewServer(env.dispatcher, session.New("u1"), "test")
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	isError, payload := toolsCallText(t, sendLine, 5, "add_record", `{"itch_level":4,"mood":"good","food_items":["rice"]}`)
	if isError {
		t.Fatalf("add_record failed: %v", payload)
	}

	isError, payload = toolsCallText(t, sendLine, 6, "get_today_records", `{}`)
	if isError {
		t.Fatalf("get_today_records failed: %v", payload)
	}
	if payload["count"] != float64(1) {
		t.Errorf("count = %v, want 1", payload["count"])
	}

	isError, payload = toolsCallText(t, sendLine, 7, "no_such_tool", `{}`)
	if !isError || payload["error_kind"] != "UnknownTool" {
		t.Errorf("unknown tool: isError=%v payload=%v", isError, payload)
	}
}

// TestRun_ToolsCall_InvalidParams verifies a tools/call without a name is a
// JSON-RPC error.
func TestRun_ToolsCall_InvalidParams(t *testing.T) {
	s := newEmptyServer(t)
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{}}`)
	if !strings.Contains(resp, `"code":-32602`) {
		t.Errorf("expected -32602, got %s", resp)
	}
}

// TestRun_UnknownMethod verifies that an unknown method returns JSON-RPC
// error code -32601.
func TestRun_UnknownMethod(t *testing.T) {
	s := newEmptyServer(t)
	sendLine, _, cleanup := runServer(t, s)
	defer cleanup()

	req := `{"jsonrpc":"2.0","id":3,"method":"nonexistent/method"}`
	resp := sendLine(req)

	var parsed struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Error == nil {
		t.Fatalf("expected error in response, got none; response: %s", resp)
	}
	if parsed.Error.Code != -32601 {
		t.Errorf("expected error code -32601, got %d; response: %s", parsed.Error.Code, resp)
	}
}

// TestRun_Notification verifies that a message without an "id" field
// (a JSON-RPC notification) produces no response.
func TestRun_Notification(t *testing.T) {
	s := newEmptyServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Send a notification (no "id" field).
	notification := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"
	if _, err := io.WriteString(pw, notification); err != nil {
		t.Fatalf("write notification: %v", err)
	}

	// After writing the notification, attempt to read a response with a short
	// deadline. We expect nothing to be written.
	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 1024)
		n, _ := sr.Read(buf)
		readDone <- buf[:n]
	}()

	select {
	case data := <-readDone:
		t.Errorf("expected no response for notification, but got: %s", data)
	case <-time.After(100 * time.Millisecond):
		// Correct: no response was written within the deadline.
	}

	// Clean up.
	cancel()
	_ = pw.Close()
	_ = sr.Close()
}

// TestRun_ContextCancel verifies that cancelling the context causes Run to
// return nil.
func TestRun_ContextCancel(t *testing.T) {
	s := newEmptyServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Cancel the context and expect Run to return nil.
	cancel()
	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on context cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after context cancel")
	}
}

// TestRun_EOFClean verifies that closing the writer side of the input pipe
// causes Run to return nil (clean EOF).
func TestRun_EOFClean(t *testing.T) {
	s := newEmptyServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	// Close the write side to signal EOF.
	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on EOF, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after EOF")
	}
}
