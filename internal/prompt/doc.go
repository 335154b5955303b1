// Package prompt asks the operator a yes/no question on the terminal.
//
// The question is a small bubbletea program. Only "y" confirms; "n", enter
// and escape decline, and ctrl+c interrupts.
//
// Example:
//
//	ok, err := prompt.Confirm(os.Stdin, os.Stderr, "Replace the dev-build release?")
//	if err != nil {
//		return err
//	}
//	if !ok {
//		return nil
//	}
package prompt
