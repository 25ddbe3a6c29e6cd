package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type session struct {
	t   *testing.T
	buf bytes.Buffer
}

func (s *session) request(id int, method string, params any) {
	s.t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "id": id, "method": method}
	if params != nil {
		msg["params"] = params
	}
	s.write(msg)
}

func (s *session) notify(method string, params any) {
	s.t.Helper()
	msg := map[string]any{"jsonrpc": "2.0", "method": method}
	if params != nil {
		msg["params"] = params
	}
	s.write(msg)
}

func (s *session) write(msg any) {
	s.t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		s.t.Fatalf("marshal: %v", err)
	}
	if err := writeMessage(&s.buf, payload); err != nil {
		s.t.Fatalf("write: %v", err)
	}
}

// run serves the scripted session and returns every message the server sent.
func (s *session) run(opts ServerOptions) ([]rpcMessage, error) {
	s.t.Helper()
	var out bytes.Buffer
	opts.Log = io.Discard
	srv := NewServer(&s.buf, &out, opts)
	runErr := srv.Run(context.Background())

	var msgs []rpcMessage
	reader := bufio.NewReader(&out)
	for {
		payload, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.t.Fatalf("read output: %v", err)
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.t.Fatalf("decode output: %v", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, runErr
}

func response(t *testing.T, msgs []rpcMessage, id int) rpcMessage {
	t.Helper()
	want := []byte(strings.TrimSpace(string(mustJSON(t, id))))
	for _, msg := range msgs {
		if msg.Method == "" && bytes.Equal(msg.ID, want) {
			return msg
		}
	}
	t.Fatalf("no response with id %d", id)
	return rpcMessage{}
}

func notifications(msgs []rpcMessage, method string) []rpcMessage {
	var out []rpcMessage
	for _, msg := range msgs {
		if msg.Method == method {
			out = append(out, msg)
		}
	}
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func openDoc(s *session, uri, text string) {
	s.notify("textDocument/didOpen", didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, LanguageID: "cpp", Version: 1, Text: text},
	})
}

const sessionSource = "namespace a { void f(); }\nvoid g() { a::f(); }\n"

func TestSessionCodeAction(t *testing.T) {
	defer goleak.VerifyNone(t)

	uri := pathToURI(filepath.Join(t.TempDir(), "main.cpp"))
	s := &session{t: t}
	s.request(1, "initialize", initializeParams{RootURI: pathToURI(t.TempDir())})
	s.notify("initialized", nil)
	openDoc(s, uri, sessionSource)
	s.request(2, "textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: position{1, 14}, End: position{1, 14}},
	})
	s.request(3, "shutdown", nil)
	s.notify("exit", nil)

	msgs, err := s.run(ServerOptions{Debounce: time.Hour})
	if !errors.Is(err, ErrExit) {
		t.Fatalf("Run: %v, want ErrExit", err)
	}

	var init initializeResult
	if err := json.Unmarshal(response(t, msgs, 1).Result, &init); err != nil {
		t.Fatalf("initialize result: %v", err)
	}
	if init.ServerInfo.Name != "cxxtweak" {
		t.Fatalf("server name %q", init.ServerInfo.Name)
	}
	if init.Capabilities.ExecuteCommandProvider == nil || init.Capabilities.ExecuteCommandProvider.Commands[0] != ApplyTweakCommand {
		t.Fatalf("missing executeCommand capability: %+v", init.Capabilities)
	}

	var actions []codeAction
	if err := json.Unmarshal(response(t, msgs, 2).Result, &actions); err != nil {
		t.Fatalf("codeAction result: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected one action, got %+v", actions)
	}
	action := actions[0]
	if action.Title != "Add using-declaration for f and remove qualifier." || action.Kind != kindRefactor {
		t.Fatalf("unexpected action %+v", action)
	}
	want := []textEdit{
		{Range: lspRange{}, NewText: "using a::f;\n\n"},
		{Range: lspRange{Start: position{1, 11}, End: position{1, 14}}, NewText: ""},
	}
	got := action.Edit.Changes[canonicalURI(uri)]
	if len(got) != len(want) {
		t.Fatalf("edits = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edit %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSessionExecuteInfoTweak(t *testing.T) {
	defer goleak.VerifyNone(t)

	uri := pathToURI(filepath.Join(t.TempDir(), "main.cpp"))
	s := &session{t: t}
	s.request(1, "initialize", nil)
	openDoc(s, uri, sessionSource)
	s.request(2, "workspace/executeCommand", map[string]any{
		"command": ApplyTweakCommand,
		"arguments": []any{tweakArgs{
			URI:   uri,
			Range: lspRange{Start: position{1, 14}, End: position{1, 14}},
			Tweak: "dump-node",
		}},
	})
	s.request(3, "workspace/executeCommand", map[string]any{
		"command":   ApplyTweakCommand,
		"arguments": []any{tweakArgs{URI: uri, Tweak: "no-such-tweak"}},
	})
	s.request(4, "shutdown", nil)
	s.notify("exit", nil)

	msgs, err := s.run(ServerOptions{Debounce: time.Hour})
	if !errors.Is(err, ErrExit) {
		t.Fatalf("Run: %v, want ErrExit", err)
	}
	if resp := response(t, msgs, 2); resp.Error != nil {
		t.Fatalf("dump-node failed: %+v", resp.Error)
	}
	shown := notifications(msgs, "window/showMessage")
	if len(shown) != 1 {
		t.Fatalf("expected one showMessage, got %d", len(shown))
	}
	var params showMessageParams
	if err := json.Unmarshal(shown[0].Params, &params); err != nil {
		t.Fatalf("showMessage params: %v", err)
	}
	if !strings.HasPrefix(params.Message, `NameRef "f"`) {
		t.Fatalf("unexpected message %q", params.Message)
	}
	resp := response(t, msgs, 3)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams || !strings.Contains(resp.Error.Message, "unknown tweak") {
		t.Fatalf("expected unknown tweak error, got %+v", resp.Error)
	}
}

func TestSessionDisabledBySettings(t *testing.T) {
	defer goleak.VerifyNone(t)

	uri := pathToURI(filepath.Join(t.TempDir(), "main.cpp"))
	s := &session{t: t}
	s.request(1, "initialize", nil)
	s.notify("workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"cxxtweak": map[string]any{"disabledTweaks": []string{"add-using"}}},
	})
	openDoc(s, uri, sessionSource)
	s.request(2, "textDocument/codeAction", codeActionParams{
		TextDocument: textDocumentIdentifier{URI: uri},
		Range:        lspRange{Start: position{1, 14}, End: position{1, 14}},
	})
	s.notify("exit", nil)

	msgs, err := s.run(ServerOptions{Debounce: time.Hour})
	if !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("Run: %v, want ErrExitWithoutShutdown", err)
	}
	var actions []codeAction
	if err := json.Unmarshal(response(t, msgs, 2).Result, &actions); err != nil {
		t.Fatalf("codeAction result: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("disabled tweak offered: %+v", actions)
	}
}

func TestUnknownMethod(t *testing.T) {
	s := &session{t: t}
	s.request(7, "textDocument/hover", nil)
	msgs, err := s.run(ServerOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp := response(t, msgs, 7)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp)
	}
}

func TestPublishDiagnostics(t *testing.T) {
	defer goleak.VerifyNone(t)

	uri := pathToURI(filepath.Join(t.TempDir(), "main.cpp"))
	var out bytes.Buffer
	server := NewServer(bytes.NewReader(nil), &out, ServerOptions{Debounce: time.Hour, Log: io.Discard})

	openPayload := mustJSON(t, didOpenTextDocumentParams{
		TextDocument: textDocumentItem{URI: uri, Version: 1, Text: "void g() { f(); }\n"},
	})
	if err := server.handleDidOpen(&rpcMessage{Method: "textDocument/didOpen", Params: openPayload}); err != nil {
		t.Fatalf("didOpen: %v", err)
	}
	changePayload := mustJSON(t, didChangeTextDocumentParams{
		TextDocument: versionedTextDocumentIdentifier{URI: uri, Version: 2},
		ContentChanges: []textDocumentContentChangeEvent{{
			Range: &lspRange{Start: position{0, 11}, End: position{0, 11}},
			Text:  "x::",
		}},
	})
	if err := server.handleDidChange(&rpcMessage{Method: "textDocument/didChange", Params: changePayload}); err != nil {
		t.Fatalf("didChange: %v", err)
	}

	server.stopDiagnostics()
	server.runDiagnostics(server.latestSeq)

	reader := bufio.NewReader(bytes.NewReader(out.Bytes()))
	payload, err := readMessage(reader)
	if err != nil {
		t.Fatalf("read publish: %v", err)
	}
	var msg struct {
		Method string                   `json:"method"`
		Params publishDiagnosticsParams `json:"params"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode publish: %v", err)
	}
	if msg.Method != "textDocument/publishDiagnostics" || msg.Params.URI != canonicalURI(uri) {
		t.Fatalf("unexpected message %s", payload)
	}
	if msg.Params.Version == nil || *msg.Params.Version != 2 {
		t.Fatalf("publish for wrong version: %v", msg.Params.Version)
	}
	found := false
	for _, d := range msg.Params.Diagnostics {
		if d.Code == "SEM3001" && strings.Contains(d.Message, `"x"`) {
			found = true
			if d.Range.Start != (position{0, 11}) {
				t.Fatalf("diagnostic at %+v", d.Range)
			}
		}
	}
	if !found {
		t.Fatalf("missing unresolved-name diagnostic: %+v", msg.Params.Diagnostics)
	}
}
