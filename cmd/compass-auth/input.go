package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errNoPassword = errors.New("password required: pass --password or run in a terminal")

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(w io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func passwordFrom(flag string, w io.Writer) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return promptPassword(w, "Password: ")
}
