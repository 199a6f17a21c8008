package cmd

import (
	"fmt"
	"io"
	"strings"
)

// ANSI colors for console output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func printSubsection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n  %s\n", title)
}

func printKeyValue(w io.Writer, key, value string) {
	if value == "" {
		fmt.Fprintf(w, "%-35s\n", key)
	} else {
		fmt.Fprintf(w, "%-35s %s\n", key+":", value)
	}
}

func printBanner(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "   %s✓%s %s\n", ColorGreen, ColorReset, fmt.Sprintf(format, args...))
}
