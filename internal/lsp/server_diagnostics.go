package lsp

import (
	"context"
	"sync/atomic"
	"time"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/driver"
	"cxxtweak/internal/source"
)

func (s *Server) scheduleDiagnostics() {
	s.mu.Lock()
	seq := atomic.AddUint64(&s.analysisSeq, 1)
	atomic.StoreUint64(&s.latestSeq, seq)
	if s.diagCancel != nil {
		s.diagCancel()
	}
	if s.debounceTimer != nil && s.debounceTimer.Stop() {
		s.inflight.Done()
	}
	s.inflight.Add(1)
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		defer s.inflight.Done()
		s.runDiagnostics(seq)
	})
	s.mu.Unlock()
}

// stopDiagnostics cancels the pending run and waits for running ones.
func (s *Server) stopDiagnostics() {
	s.mu.Lock()
	if s.debounceTimer != nil && s.debounceTimer.Stop() {
		// таймер не сработал, его Done уже не вызовется
		s.inflight.Done()
	}
	s.debounceTimer = nil
	if s.diagCancel != nil {
		s.diagCancel()
		s.diagCancel = nil
	}
	s.mu.Unlock()
	s.inflight.Wait()
}

func (s *Server) isLatestSeq(seq uint64) bool {
	return atomic.LoadUint64(&s.latestSeq) == seq
}

func (s *Server) runDiagnostics(seq uint64) {
	if seq == 0 || !s.isLatestSeq(seq) {
		return
	}
	s.mu.Lock()
	if s.diagCancel != nil {
		s.diagCancel()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.diagCancel = cancel
	docs := make([]*document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	s.mu.Unlock()
	defer cancel()

	for _, doc := range docs {
		if ctx.Err() != nil || !s.isLatestSeq(seq) {
			return
		}
		snap, err := s.snapshotFor(ctx, doc)
		if err != nil {
			s.logf("diagnostics failed for %s: %v", doc.uri, err)
			continue
		}
		if !s.isCurrent(doc) {
			continue
		}
		s.publishDiagnostics(doc, snap)
	}
}

// isCurrent reports whether doc is still the open version of its URI.
func (s *Server) isCurrent(doc *document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[doc.uri] == doc
}

func (s *Server) publishDiagnostics(doc *document, snap *driver.Snapshot) {
	snap.Bag.Sort()
	items := snap.Bag.Items()
	out := make([]lspDiagnostic, 0, len(items))
	for _, d := range items {
		if d.Primary.File != snap.File.ID {
			continue
		}
		out = append(out, toLSPDiagnostic(snap.File, d))
		if len(out) >= s.maxDiagnostics {
			break
		}
	}
	version := doc.version
	if err := s.sendPublish(doc.uri, &version, out); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
		return
	}
	s.mu.Lock()
	if len(out) > 0 {
		s.published[doc.uri] = struct{}{}
	} else {
		delete(s.published, doc.uri)
	}
	traceLSP := s.traceLSP
	s.mu.Unlock()
	if traceLSP {
		s.logf("publish: uri=%s version=%d count=%d", doc.uri, version, len(out))
	}
}

func toLSPDiagnostic(file *source.File, d diag.Diagnostic) lspDiagnostic {
	return lspDiagnostic{
		Range:    rangeForSpan(file, d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.ID(),
		Source:   "cxxtweak",
		Message:  d.Message,
	}
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func (s *Server) sendPublish(uri string, version *int, diags []lspDiagnostic) error {
	if diags == nil {
		diags = []lspDiagnostic{}
	}
	return s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diags,
	})
}

func (s *Server) clearPublishedDiagnostics() {
	s.mu.Lock()
	uris := make([]string, 0, len(s.published))
	for uri := range s.published {
		uris = append(uris, uri)
	}
	s.published = make(map[string]struct{})
	s.mu.Unlock()
	for _, uri := range uris {
		if err := s.sendPublish(uri, nil, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
}
