package token

// Kind is the category of a preprocessing token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Ident
	Number
	String
	Char
	ColonColon // ::
	Semicolon  // ;
	Comma      // ,
	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
	Hash       // #
	HashHash   // ##
	Ellipsis   // ...
	Punct      // остальные операторы
)

var kindNames = [...]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Ident:      "Ident",
	Number:     "Number",
	String:     "String",
	Char:       "Char",
	ColonColon: "ColonColon",
	Semicolon:  "Semicolon",
	Comma:      "Comma",
	LParen:     "LParen",
	RParen:     "RParen",
	LBrace:     "LBrace",
	RBrace:     "RBrace",
	Hash:       "Hash",
	HashHash:   "HashHash",
	Ellipsis:   "Ellipsis",
	Punct:      "Punct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}
