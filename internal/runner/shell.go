package runner

import "strings"

// ShellCommand wraps name and args into an invocation of the host shell.
// On Windows the line goes to cmd /C; everywhere else to sh -c with every
// token single-quoted.
func ShellCommand(goos, name string, args []string) (string, []string) {
	if goos == "windows" {
		parts := make([]string, 0, len(args)+1)
		parts = append(parts, QuoteWindows(name))
		for _, a := range args {
			parts = append(parts, QuoteWindows(a))
		}
		return "cmd", []string{"/C", strings.Join(parts, " ")}
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuotePosix(name))
	for _, a := range args {
		parts = append(parts, QuotePosix(a))
	}
	return "sh", []string{"-c", strings.Join(parts, " ")}
}

// QuotePosix returns a single shell token using the single-quote strategy:
//
//	abc -> 'abc'
//	a'b -> 'a'"'"'b'
//	""  -> ''
func QuotePosix(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// QuoteWindows double-quotes s when it contains spaces or quotes.
func QuoteWindows(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
