package model

import "fmt"

// Language is a supported submission language. The integer values double as
// the wire encoding and as bit positions in a problem's allowed-language
// mask.
type Language int

const (
	LanguageC      Language = 0
	LanguageCpp    Language = 1
	LanguagePython Language = 2
)

// AllLanguages is the bitmask allowing every supported language.
const AllLanguages = 1<<(LanguagePython+1) - 1

func LanguageFromInt(i int) (Language, error) {
	switch l := Language(i); l {
	case LanguageC, LanguageCpp, LanguagePython:
		return l, nil
	default:
		return 0, fmt.Errorf("invalid language: %d", i)
	}
}

func (l Language) Valid() bool {
	return l >= LanguageC && l <= LanguagePython
}

// Bit is the language's position in an allowed-language bitmask.
func (l Language) Bit() int {
	return 1 << l
}

func (l Language) String() string {
	switch l {
	case LanguageC:
		return "c"
	case LanguageCpp:
		return "cpp"
	case LanguagePython:
		return "python"
	default:
		return fmt.Sprintf("language(%d)", int(l))
	}
}
