package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// statusKind selects the severity label and color for a status line.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	}
	return "INFO"
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	}
	return ""
}

// renderStatusLine formats one aligned "Label: [KIND] message" row, wrapping
// the whole line in ANSI color when colorize is set.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := "[" + kind.label() + "]"
	if message != "" {
		tag += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", tag)
	if !colorize {
		return line
	}
	color := kind.color()
	if color == "" {
		return line
	}
	return color + line + ansiReset
}

// renderSectionHeader returns the header line plus an underline of equal width.
func renderSectionHeader(title string, colorize bool) []string {
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	underline := strings.Repeat("-", len(header))
	if colorize {
		return []string{ansiBlue + header + ansiReset, ansiBlue + underline + ansiReset}
	}
	return []string{header, underline}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
