package models

import "strings"

// Language is a programming language a contest can be locked to.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
)

// SupportedLanguages lists every language in presentation order.
var SupportedLanguages = []Language{LanguagePython, LanguageTypeScript, LanguageGo, LanguageJava}

// NormalizeLanguage maps free-form requisition text ("Python 3", "TS",
// "golang") onto a supported language. Unknown input maps to python.
func NormalizeLanguage(s string) Language {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "py"):
		return LanguagePython
	case strings.HasPrefix(v, "ts"), strings.Contains(v, "type"):
		return LanguageTypeScript
	case strings.HasPrefix(v, "go"):
		return LanguageGo
	case strings.HasPrefix(v, "java"):
		return LanguageJava
	}
	return LanguagePython
}

// Valid reports whether l is one of SupportedLanguages.
func (l Language) Valid() bool {
	switch l {
	case LanguagePython, LanguageTypeScript, LanguageGo, LanguageJava:
		return true
	}
	return false
}

// SolutionFile is the file name the execution service expects the source under.
func (l Language) SolutionFile() string {
	switch l {
	case LanguageTypeScript:
		return "solution.ts"
	case LanguageGo:
		return "solution.go"
	case LanguageJava:
		return "Solution.java"
	}
	return "solution.py"
}

// Label is the human-readable language name.
func (l Language) Label() string {
	switch l {
	case LanguageTypeScript:
		return "TypeScript"
	case LanguageGo:
		return "Go"
	case LanguageJava:
		return "Java"
	}
	return "Python"
}

// Template returns the boilerplate an empty editor starts with.
func (l Language) Template() string {
	switch l {
	case LanguageTypeScript:
		return tsTemplate
	case LanguageGo:
		return goTemplate
	case LanguageJava:
		return javaTemplate
	}
	return pyTemplate
}

const pyTemplate = `def main():
    pass


if __name__ == "__main__":
    main()
`

const tsTemplate = `function main(): void {
  // Your code here
}

main();
`

const goTemplate = `package main

func main() {
	// Your code here
}
`

const javaTemplate = `public class Solution {
    public static void main(String[] args) {
        // Your code here
    }
}
`
