package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func readLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	raw, err := readRaw(reader, w, prompt)
	return strings.TrimSpace(raw), err
}

// readSecret no hace eco cuando stdin es una terminal. Fuera de una terminal
// lee la línea tal cual, sin recortar espacios.
func readSecret(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readRaw(reader, w, prompt)
	}
	fmt.Fprintf(w, "%s: ", prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readRaw(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprintf(w, "%s: ", prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
