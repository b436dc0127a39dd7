package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cheat is one code the host asks a core to apply.
type Cheat struct {
	FormatID string
	Code     string
	Enabled  bool
}

// CheatFormat describes the shape of codes a core accepts. In Format, every
// 'x' is a placeholder for one character from CharacterSet and any other
// character must appear literally, e.g. "xxxxxxxx:xxxxxxxx".
type CheatFormat struct {
	ID           string
	DisplayName  string
	CharacterSet string
	Format       string
}

// placeholder marks a variable position in CheatFormat.Format.
const placeholder = 'x'

// Normalize upper-cases the code and trims surrounding whitespace from each
// line, dropping empty lines.
func (f CheatFormat) Normalize(code string) string {
	var lines []string
	for _, line := range strings.Split(code, "\n") {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Validate checks that every line of code matches Format exactly. The code
// is normalised first.
func (f CheatFormat) Validate(code string) error {
	code = f.Normalize(code)
	if code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidCheatCode)
	}
	format := []rune(f.Format)
	for n, line := range strings.Split(code, "\n") {
		if utf8.RuneCountInString(line) != len(format) {
			return fmt.Errorf("%w: line %d has length %d, expected %d",
				ErrInvalidCheatCode, n+1, utf8.RuneCountInString(line), len(format))
		}
		for i, r := range []rune(line) {
			if format[i] == placeholder {
				if !strings.ContainsRune(f.CharacterSet, r) {
					return fmt.Errorf("%w: line %d: invalid character %q", ErrInvalidCheatCode, n+1, r)
				}
			} else if r != format[i] {
				return fmt.Errorf("%w: line %d: expected %q at position %d",
					ErrInvalidCheatCode, n+1, format[i], i+1)
			}
		}
	}
	return nil
}

// FormatCode reflows free-form input into the format's layout. Characters
// outside CharacterSet are dropped, separators are inserted, and a new line
// is started each time the format is filled.
func (f CheatFormat) FormatCode(input string) string {
	format := []rune(f.Format)
	if len(format) == 0 {
		return ""
	}
	var b strings.Builder
	pos := 0
	for _, r := range strings.ToUpper(input) {
		if !strings.ContainsRune(f.CharacterSet, r) {
			continue
		}
		if pos == len(format) {
			b.WriteByte('\n')
			pos = 0
		}
		for pos < len(format) && format[pos] != placeholder {
			b.WriteRune(format[pos])
			pos++
		}
		if pos == len(format) {
			// A format with no placeholders cannot hold characters.
			return b.String()
		}
		b.WriteRune(r)
		pos++
	}
	return b.String()
}

// FindCheatFormat returns the format with the given ID.
func FindCheatFormat(formats []CheatFormat, id string) (CheatFormat, bool) {
	for _, f := range formats {
		if f.ID == id {
			return f, true
		}
	}
	return CheatFormat{}, false
}

// ValidateCheats checks every enabled cheat against formats. It returns the
// first failure wrapped in ErrUnknownCheatFormat or ErrInvalidCheatCode.
func ValidateCheats(formats []CheatFormat, cheats []Cheat) error {
	for i, c := range cheats {
		if !c.Enabled {
			continue
		}
		f, ok := FindCheatFormat(formats, c.FormatID)
		if !ok {
			return fmt.Errorf("cheat %d: %w: %q", i, ErrUnknownCheatFormat, c.FormatID)
		}
		if err := f.Validate(c.Code); err != nil {
			return fmt.Errorf("cheat %d: %w", i, err)
		}
	}
	return nil
}
