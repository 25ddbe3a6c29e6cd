package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexUnterminatedChar         Code = 1004

	// Препроцессор
	PPInfo               Code = 1500
	PPMalformedDirective Code = 1501
	PPMacroRedefined     Code = 1502
	PPUnterminatedArgs   Code = 1503
	PPArgCountMismatch   Code = 1504
	PPBadStringify       Code = 1505
	PPBadPaste           Code = 1506
	PPIgnoredDirective   Code = 1507

	// Синтаксис (tree-sitter)
	SynInfo          Code = 2000
	SynError         Code = 2001
	SynMissing       Code = 2002
	SynUnmappedRange Code = 2003

	// Семантика
	SemaInfo           Code = 3000
	SemaUnresolvedName Code = 3001
	SemaNotANamespace  Code = 3002
	SemaAmbiguousName  Code = 3003
	SemaBadUsingTarget Code = 3004

	// IO / проект
	IOLoadFileError   Code = 4001
	ProjBadConfig     Code = 5001
	ProjUnknownConfig Code = 5002
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexUnterminatedChar:         "Unterminated character literal",
	PPInfo:                      "Preprocessor information",
	PPMalformedDirective:        "Malformed preprocessor directive",
	PPMacroRedefined:            "Macro redefined",
	PPUnterminatedArgs:          "Unterminated macro argument list",
	PPArgCountMismatch:          "Wrong number of macro arguments",
	PPBadStringify:              "'#' is not followed by a macro parameter",
	PPBadPaste:                  "Pasting does not form a valid token",
	PPIgnoredDirective:          "Directive ignored",
	SynInfo:                     "Syntax information",
	SynError:                    "Syntax error",
	SynMissing:                  "Missing token",
	SynUnmappedRange:            "Syntax node does not map to tokens",
	SemaInfo:                    "Semantic information",
	SemaUnresolvedName:          "Unresolved name",
	SemaNotANamespace:           "Name does not refer to a namespace",
	SemaAmbiguousName:           "Ambiguous name",
	SemaBadUsingTarget:          "Using-declaration target not found",
	IOLoadFileError:             "Failed to load file",
	ProjBadConfig:               "Invalid configuration file",
	ProjUnknownConfig:           "Unknown configuration key",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 1500:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 1500 && ic < 2000:
		return fmt.Sprintf("PP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
