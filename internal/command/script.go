package command

// ScriptIter splits a command script into a lazy, finite,
// non-restartable sequence of logical commands, per spec.md §4.1.
type ScriptIter struct {
	rest string
}

// NewScriptIter creates an iterator over the given script text.
func NewScriptIter(script string) *ScriptIter {
	return &ScriptIter{rest: script}
}

// Next returns the next non-empty logical command, or ok=false when the
// script is exhausted.
func (it *ScriptIter) Next() (command string, ok bool) {
outer:
	for {
		it.rest = trimASCIISpaceLeft(it.rest)
		if it.rest == "" {
			return "", false
		}

		bytes := []byte(it.rest)
		i := 0
		for {
			if i == len(bytes) {
				command := it.rest
				it.rest = ""
				return command, true
			}

			switch bytes[i] {
			case '\\':
				// An unescaped '\' continues the command across the next
				// byte, most importantly a '\n' that would otherwise end
				// it (spec.md §4.1). Skip the escaped byte outright so
				// none of the cases below ever see it as a separator.
				if i+1 < len(bytes) {
					i++
				}

			case '\n':
				command, rest := it.rest[:i], it.rest[i+1:]
				it.rest = rest
				if command == "" {
					continue outer
				}
				return command, true

			case ';':
				command := it.rest[:i]
				it.rest = it.rest[i+1:]
				if command == "" {
					continue outer
				}
				return command, true

			case '{':
				if j := findBalanced(bytes[i+1:], '{', '}'); j >= 0 {
					i += j + 1
				} else {
					command := it.rest
					it.rest = ""
					return command, true
				}

			case '#':
				command := it.rest[:i]
				for i < len(bytes) && bytes[i] != '\n' {
					i++
				}
				it.rest = it.rest[i:]
				if command == "" {
					continue outer
				}
				return command, true
			}

			i++
		}
	}
}

func trimASCIISpaceLeft(s string) string {
	i := 0
	for i < len(s) && isASCIISpace(s[i]) {
		i++
	}
	return s[i:]
}
