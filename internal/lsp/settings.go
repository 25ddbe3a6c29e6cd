package lsp

import (
	"encoding/json"

	"cxxtweak/internal/tweak"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	return nil
}

// applySettings merges client settings; unknown anchor values are ignored.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings lspSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.CxxTweak.DisabledTweaks != nil {
		s.disabled = append([]string(nil), settings.CxxTweak.DisabledTweaks...)
	}
	if settings.CxxTweak.Anchor != nil {
		if anchor, err := tweak.ParseAnchorPlacement(*settings.CxxTweak.Anchor); err == nil {
			s.tweakOpts.Anchor = anchor
		} else {
			s.logf("settings: %v", err)
		}
	}
	if settings.CxxTweak.Trace != nil {
		s.traceLSP = *settings.CxxTweak.Trace
	}
}

func (s *Server) currentTweakOptions() (tweak.Options, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tweakOpts, append([]string(nil), s.disabled...)
}
