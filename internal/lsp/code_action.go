package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cxxtweak/internal/driver"
	"cxxtweak/internal/source"
	"cxxtweak/internal/tweak"
)

const (
	kindRefactor = "refactor.rewrite"
	kindInfo     = "refactor.inline.info"
)

// message types of window/showMessage
const (
	messageError = 1
	messageInfo  = 3
)

// snapshotFor analyzes doc once; later calls reuse the result until the
// document is replaced by a change.
func (s *Server) snapshotFor(ctx context.Context, doc *document) (*driver.Snapshot, error) {
	s.mu.Lock()
	snap := doc.snap
	s.mu.Unlock()
	if snap != nil {
		return snap, nil
	}
	name := doc.path
	if name == "" {
		name = doc.uri
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(doc.text))
	snap, err := driver.Analyze(ctx, fs, id, s.analyzeOpts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if doc.snap == nil {
		doc.snap = snap
	}
	snap = doc.snap
	s.mu.Unlock()
	return snap, nil
}

func (s *Server) document(uri string) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[canonicalURI(uri)]
}

func (s *Server) handleCodeAction(ctx context.Context, msg *rpcMessage) error {
	var params codeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	doc := s.document(params.TextDocument.URI)
	if doc == nil {
		return s.sendResponse(msg.ID, []codeAction{})
	}
	snap, err := s.snapshotFor(ctx, doc)
	if err != nil {
		s.logf("codeAction: %v", err)
		return s.sendResponse(msg.ID, []codeAction{})
	}
	return s.sendResponse(msg.ID, s.buildCodeActions(ctx, doc, snap, params))
}

// buildCodeActions offers every available tweak. Refactorings carry their
// edit directly; informational tweaks run through executeCommand.
func (s *Server) buildCodeActions(ctx context.Context, doc *document, snap *driver.Snapshot, params codeActionParams) []codeAction {
	opts, disabled := s.currentTweakOptions()
	req := driver.TweakRequest{
		Start:    offsetForPosition(snap.File, params.Range.Start),
		End:      offsetForPosition(snap.File, params.Range.End),
		Options:  opts,
		Disabled: disabled,
	}
	actions := []codeAction{}
	for _, avail := range snap.Available(ctx, req) {
		if !kindAllowed(params.Context.Only, avail.Intent) {
			continue
		}
		if avail.Intent == tweak.IntentInfo {
			actions = append(actions, codeAction{
				Title: avail.Title,
				Kind:  kindInfo,
				Command: &command{
					Title:     avail.Title,
					Command:   ApplyTweakCommand,
					Arguments: []any{tweakArgs{URI: doc.uri, Range: params.Range, Tweak: avail.ID}},
				},
			})
			continue
		}
		out, err := snap.RunTweak(ctx, avail.ID, req)
		if err != nil {
			s.logf("codeAction %s: %v", avail.ID, err)
			continue
		}
		edit := effectEdit(doc.uri, snap.File, out.Effect)
		actions = append(actions, codeAction{Title: out.Title, Kind: kindRefactor, Edit: &edit})
	}
	return actions
}

// kindAllowed filters by the client's context.only prefixes.
func kindAllowed(only []string, intent tweak.Intent) bool {
	if len(only) == 0 {
		return true
	}
	kind := kindRefactor
	if intent == tweak.IntentInfo {
		kind = kindInfo
	}
	for _, prefix := range only {
		if prefix == kind || prefix == "refactor" || (len(kind) > len(prefix) && kind[:len(prefix)+1] == prefix+".") {
			return true
		}
	}
	return false
}

func effectEdit(uri string, file *source.File, eff tweak.Effect) workspaceEdit {
	items := eff.Edits.Items()
	edits := make([]textEdit, 0, len(items))
	for _, r := range items {
		edits = append(edits, textEdit{Range: rangeForSpan(file, r.Span()), NewText: r.Text})
	}
	return workspaceEdit{Changes: map[string][]textEdit{uri: edits}}
}

func (s *Server) handleExecuteCommand(ctx context.Context, msg *rpcMessage) error {
	var params executeCommandParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid params")
	}
	if params.Command != ApplyTweakCommand || len(params.Arguments) != 1 {
		return s.sendError(msg.ID, codeInvalidParams, fmt.Sprintf("unsupported command %q", params.Command))
	}
	var args tweakArgs
	if err := json.Unmarshal(params.Arguments[0], &args); err != nil {
		return s.sendError(msg.ID, codeInvalidParams, "invalid tweak arguments")
	}
	doc := s.document(args.URI)
	if doc == nil {
		return s.sendError(msg.ID, codeInvalidParams, "document is not open: "+args.URI)
	}
	snap, err := s.snapshotFor(ctx, doc)
	if err != nil {
		return s.sendError(msg.ID, codeInternalError, err.Error())
	}
	opts, disabled := s.currentTweakOptions()
	out, err := snap.RunTweak(ctx, args.Tweak, driver.TweakRequest{
		Start:    offsetForPosition(snap.File, args.Range.Start),
		End:      offsetForPosition(snap.File, args.Range.End),
		Options:  opts,
		Disabled: disabled,
	})
	switch {
	case errors.Is(err, driver.ErrUnknownTweak), errors.Is(err, driver.ErrTweakUnavailable):
		return s.sendError(msg.ID, codeInvalidParams, err.Error())
	case err != nil:
		// ошибки apply показываем пользователю, запрос всё равно отвечен
		if sendErr := s.sendNotification("window/showMessage", showMessageParams{Type: messageError, Message: err.Error()}); sendErr != nil {
			return sendErr
		}
		return s.sendError(msg.ID, codeRequestFailed, err.Error())
	}

	if out.Effect.Message != "" {
		if err := s.sendNotification("window/showMessage", showMessageParams{Type: messageInfo, Message: out.Effect.Message}); err != nil {
			return err
		}
	}
	if out.Effect.HasEdits() {
		if err := s.sendRequest("workspace/applyEdit", applyWorkspaceEditParams{
			Label: out.Title,
			Edit:  effectEdit(doc.uri, snap.File, out.Effect),
		}); err != nil {
			return err
		}
	}
	return s.sendResponse(msg.ID, nil)
}
