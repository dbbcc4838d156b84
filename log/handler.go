// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Output formats.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// FromVerbosity maps the classic 0 (crit) .. 5 (trace) verbosity to a slog level.
func FromVerbosity(verbosity int) slog.Level {
	return ethlog.FromLegacyLevel(verbosity)
}

// NewHandler creates a handler writing to w in the given format.
func NewHandler(w io.Writer, format string, level slog.Level, color bool) (slog.Handler, error) {
	switch format {
	case "", FormatTerminal:
		return ethlog.NewTerminalHandlerWithLevel(w, level, color), nil
	case FormatJSON:
		return ethlog.JSONHandlerWithLevel(w, level), nil
	case FormatLogfmt:
		return ethlog.LogfmtHandlerWithLevel(w, level), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

// Setup installs a root handler on stdout, coloured when stdout is a terminal.
func Setup(format string, verbosity int) error {
	useColor := (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) && os.Getenv("TERM") != "dumb"
	h, err := NewHandler(os.Stdout, format, FromVerbosity(verbosity), useColor)
	if err != nil {
		return err
	}
	SetDefault(h)
	return nil
}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}
