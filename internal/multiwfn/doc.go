// Package multiwfn drives the Multiwfn executable through scripted stdin.
//
// Multiwfn is interactive: analyses are selected by answering menu prompts.
// A script here is simply those answers joined by newlines. Run feeds a
// script to the binary and captures its output; Multiwfn conventionally
// exits with code 24 when stdin drains after a completed script, so both
// 0 and 24 count as success. Execute covers the other mode of use, running
// a user-supplied script file with output streamed through.
package multiwfn
