package lexer

// Stream replays an already scanned token slice. The last token (EOF) is
// returned again once the slice is exhausted.
type Stream struct {
	toks []Token
	pos  int
}

// NewStream wraps the output of Tokenize
func NewStream(toks []Token) *Stream {
	return &Stream{toks: toks}
}

// NextToken returns the next token of the slice
func (s *Stream) NextToken() Token {
	if len(s.toks) == 0 {
		return Token{Type: TokenEOF}
	}
	tok := s.toks[s.pos]
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return tok
}
