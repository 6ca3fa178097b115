package command

// Value is either a token reference into the command source or a
// register key (registers are substituted at a higher level before
// binding reaches here; Token is the only concrete case produced by the
// tokenizer itself).
type Value struct {
	Token Token
}

// Flag describes one flag a builtin handler accepts, and is populated in
// place by Args.GetFlags.
type Flag struct {
	Name  string
	Value *Value // nil if the flag was not present
}

// Args is the lazy argument cursor handed to builtin command handlers.
// Positional tokens are consumed via TryNext/Next; flags are scanned out
// of band via GetFlags without disturbing the positional cursor.
type Args struct {
	source string
	Bang   bool

	tokens TokenIter
	count  uint8
}

// newArgs constructs an Args cursor starting right after the command
// name token.
func newArgs(source string, bang bool, rest TokenIter) *Args {
	return &Args{source: source, Bang: bang, tokens: rest}
}

// AssertNoBang fails if the command was invoked with a trailing '!'.
func (a *Args) AssertNoBang() error {
	if a.Bang {
		return &BangError{}
	}
	return nil
}

// GetFlags scans the remaining tokens for the named flags, in any order
// and interspersed with positional text tokens, without consuming the
// positional tokens themselves (so TryNext still sees them afterwards).
// Flag syntax: "-name" (value is ""), "-name value", or "-name=value".
func (a *Args) GetFlags(flags []Flag) error {
	it := &TokenIter{rest: a.tokens.rest, len: a.tokens.len}
	for {
		kind, tok, ok := it.Next()
		if !ok {
			return nil
		}
		switch kind {
		case Text:
			// leave positional tokens for TryNext
		case Flag:
			name := tok.String(a.source)[1:]
			idx := -1
			for i := range flags {
				if flags[i].Name == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				return &TokenError{Kind: ErrUnknownFlag, Token: tok}
			}

			before := it.rest
			k2, t2, ok2 := it.Next()
			switch {
			case !ok2:
				v := Value{Token: Token{From: tok.To, To: tok.To}}
				flags[idx].Value = &v
				return nil
			case k2 == Text:
				v := Value{Token: t2}
				flags[idx].Value = &v
			case k2 == Flag:
				it.rest = before
				v := Value{Token: Token{From: tok.To, To: tok.To}}
				flags[idx].Value = &v
			case k2 == Equals:
				k3, t3, ok3 := it.Next()
				switch {
				case !ok3:
					return &TokenError{Kind: ErrInvalidToken, Token: t2}
				case k3 == Text:
					v := Value{Token: t3}
					flags[idx].Value = &v
				case k3 == Unterminated:
					return &TokenError{Kind: ErrUnterminatedToken, Token: t3}
				default:
					return &TokenError{Kind: ErrInvalidToken, Token: t3}
				}
			case k2 == Unterminated:
				return &TokenError{Kind: ErrUnterminatedToken, Token: t2}
			}
		case Equals:
			return &TokenError{Kind: ErrInvalidToken, Token: tok}
		case Unterminated:
			return &TokenError{Kind: ErrUnterminatedToken, Token: tok}
		}
	}
}

// TryNext returns the next positional token, skipping over flags (and
// their bound value, if any) so no positional argument is lost to a
// flag scan performed elsewhere. Returns ok=false at end of input.
func (a *Args) TryNext() (Value, bool, error) {
	a.count++
	for {
		kind, tok, ok := a.tokens.Next()
		if !ok {
			return Value{}, false, nil
		}
		switch kind {
		case Text:
			return Value{Token: tok}, true, nil
		case Flag:
			before := a.tokens.rest
			k2, t2, ok2 := a.tokens.Next()
			switch {
			case !ok2:
				return Value{}, false, nil
			case k2 == Text:
				// the flag's bound value, not a positional
			case k2 == Flag:
				a.tokens.rest = before
			case k2 == Equals:
				a.tokens.Next()
			case k2 == Unterminated:
				return Value{}, false, &TokenError{Kind: ErrUnterminatedToken, Token: t2}
			}
		case Equals:
			return Value{}, false, &TokenError{Kind: ErrInvalidToken, Token: tok}
		case Unterminated:
			return Value{}, false, &TokenError{Kind: ErrUnterminatedToken, Token: tok}
		}
	}
}

// Next wraps TryNext and fails with a "too few arguments" error when
// input is exhausted.
func (a *Args) Next() (Value, error) {
	v, ok, err := a.TryNext()
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, &ArityError{Kind: ErrTooFewArguments, Min: a.count}
	}
	return v, nil
}

// AssertEmpty fails with "too many arguments" if any positional token
// remains.
func (a *Args) AssertEmpty() error {
	for {
		kind, tok, ok := a.tokens.Next()
		if !ok {
			return nil
		}
		switch kind {
		case Text:
			return &ArityError{Kind: ErrTooManyArguments, Min: a.count, Token: tok, HasToken: true}
		case Flag:
			before := a.tokens.rest
			k2, t2, ok2 := a.tokens.Next()
			switch {
			case !ok2:
				return nil
			case k2 == Text:
				// the flag's bound value, not a positional
			case k2 == Flag:
				a.tokens.rest = before
			case k2 == Equals:
				a.tokens.Next()
			case k2 == Unterminated:
				return &TokenError{Kind: ErrUnterminatedToken, Token: t2}
			}
		case Equals:
			return &TokenError{Kind: ErrInvalidToken, Token: tok}
		case Unterminated:
			return &TokenError{Kind: ErrUnterminatedToken, Token: tok}
		}
	}
}
