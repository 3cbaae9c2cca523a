// Package script executes user-supplied analysis scripts against a
// loaded audio clip and captures their text output.
package script
