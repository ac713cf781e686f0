package internal

import (
	"fmt"
	"io"
	"strings"
)

func Logf(w io.Writer, prefix, account string, format string, a ...any) {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	if account != "" {
		parts = append(parts, fmt.Sprintf("Account %s:", account))
	}
	parts = append(parts, fmt.Sprintf(format, a...))
	fmt.Fprintln(w, strings.Join(parts, " "))
}
