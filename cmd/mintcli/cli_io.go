package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func readLine(r *bufio.Reader, w io.Writer, prompt string) string {
	fmt.Fprint(w, prompt)
	t, _ := r.ReadString('\n')
	return strings.TrimSpace(t)
}

// readPassword reads a secret from the terminal without echo.
func readPassword(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func stdinIsTerminal() bool { return term.IsTerminal(int(syscall.Stdin)) }

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func maskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

// confirm asks before a transaction is sent; assumeYes skips the prompt.
func confirm(assumeYes bool, w io.Writer, question string) bool {
	if assumeYes {
		return true
	}
	return yes(readLine(bufio.NewReader(os.Stdin), w, question+" [y/N]: "))
}
