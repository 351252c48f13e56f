// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent    = 4  // spaces to indent file entries
	nameWidth     = 35 // Base width for filename
	defectsWidth  = 30 // Width for the defect list
	outcomeWidth  = 15 // Width for outcome text
	headerProgram = "htmlfix"
)

// Outcomes understood by LogFileOperation
const (
	OutcomeModified      = "modified"
	OutcomeProposed      = "proposed"
	OutcomePending       = "pending"
	OutcomeUnchanged     = "unchanged"
	OutcomeFalsePositive = "false-positive"
	OutcomeFailed        = "failed"
)

// 🎯 FileOperation represents what a run did with one file
type FileOperation struct {
	Path    string   // File path, relative to the run root when possible
	Outcome string   // One of the Outcome constants
	Defects []string // Defects found in the file
	Hits    int      // Number of occurrences fixed or found
	Error   error    // Failure, if any
}

// 📦 RunOperation describes a whole run for the console header
type RunOperation struct {
	Mode    string   // preview, apply or verify
	Root    string   // Directory being fixed
	Defects []string // Enabled defects
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentRun *RunOperation
	operations []FileOperation
}

// 🏭 New creates a new logger that prints to console and mirrors to zlog
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Outcome {
	case OutcomeModified:
		symbol = '✓'
		symbolColor = color.FgGreen
	case OutcomeProposed:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case OutcomePending:
		symbol = '…'
		symbolColor = color.FgYellow
	case OutcomeFalsePositive:
		symbol = '?'
		symbolColor = color.FgMagenta
	case OutcomeFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgHiBlack
	}

	outcome := op.Outcome
	if op.Hits > 0 {
		outcome = fmt.Sprintf("%s (%d)", op.Outcome, op.Hits)
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", defectsWidth, strings.Join(op.Defects, ","))),
		fmt.Sprintf("%-*s", outcomeWidth, outcome))

	if op.Error != nil {
		line += " " + color.New(color.FgRed).Sprint(op.Error.Error())
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	ev := l.zlog.Debug()
	if op.Error != nil {
		ev = l.zlog.Warn().Err(op.Error)
	}
	ev.Str("file", op.Path).
		Str("outcome", op.Outcome).
		Strs("defects", op.Defects).
		Int("hits", op.Hits).
		Msg("file operation")
}

// 📝 StartRun prints the run header
func (l *Logger) StartRun(ctx context.Context, op RunOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentRun = &op
	l.operations = nil

	fmt.Fprintf(l.console, "[%s %s]\n",
		op.Mode,
		color.New(color.FgCyan).Sprint(op.Root))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(fmt.Sprintf("%d defects", len(op.Defects))),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(strings.Join(op.Defects, ", ")))

	l.zlog.Info().
		Str("mode", op.Mode).
		Str("root", op.Root).
		Strs("defects", op.Defects).
		Msg("starting run")
}

// 📝 EndRun closes the current run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentRun == nil {
		return
	}

	l.zlog.Info().
		Str("mode", l.currentRun.Mode).
		Int("files", len(l.operations)).
		Msg("run complete")

	l.currentRun = nil
	l.operations = nil
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Raw prints text as is
func (l *Logger) Raw(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.console, text)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	program := color.New(color.Bold, color.FgCyan).Sprint(headerProgram)
	fmt.Fprintf(l.console, "\n%s %s\n\n", program, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
