// Package commands implements the latch CLI.
//
// The run command wires a Session to a Refresher and reads line commands
// from stdin in place of an interactive control: edit, type <text>, commit,
// cancel, show, quit.
package commands
