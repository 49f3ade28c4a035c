// Coreview is a collaborative AI code review tool.
//
// It runs a server that reviews code through an LLM provider and relays
// edits between the members of a room, a terminal editor that talks to it,
// and headless commands for reviewing files and syncing them with a room.
//
// Usage:
//
//	coreview serve                          # review API and room relay
//	coreview edit                           # terminal editor
//	coreview edit --snippet-url '<url>'     # open a shared snippet
//	coreview review main.py --mode fix      # review a file
//	coreview room create --file main.py     # share a file in a new room
//	coreview room join ABC123 --file x.py   # join a room
//	coreview share encode main.py           # print a share URL
package main
