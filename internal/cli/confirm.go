// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
)

// ErrConfirmationRequired is returned when a destructive command runs
// without --yes and no terminal is available to ask.
var ErrConfirmationRequired = errors.New("confirmation required: re-run with --yes")

// requireConfirmation asks before a destructive action.
//
// Confirmation flow:
//  1. If yes is set (--yes), proceed without prompting
//  2. If stdin is not a terminal, fail with ErrConfirmationRequired
//  3. Otherwise prompt and accept y or yes
func (a *app) requireConfirmation(yes bool, action string, details map[string]string) (bool, error) {
	if yes {
		return true, nil
	}
	if !a.interactive() {
		return false, ErrConfirmationRequired
	}

	fmt.Fprintln(a.stdout, WarningStyle.Render("About to "+action+"."))
	for label, value := range details {
		fmt.Fprintf(a.stdout, "  %s%s\n", RenderLabel(label+":"), value)
	}

	response, err := a.readLine("\nContinue? [y/N]: ")
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// bufferedPrompt writes prompt to stdout and reads one line from stdin.
func (a *app) bufferedPrompt(prompt string) (string, error) {
	fmt.Fprint(a.stdout, prompt)
	if a.input == nil {
		a.input = bufio.NewReader(a.stdin)
	}
	line, err := a.input.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

// linerPrompt reads one line from the terminal with line editing. Ctrl+C
// answers no.
func linerPrompt(prompt string) (string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	input, err := line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", nil
	}
	return input, err
}
