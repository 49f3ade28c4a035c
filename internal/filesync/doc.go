// Package filesync binds a file on disk to a workspace so a collaboration
// room can be joined without the terminal editor.
//
// Saving the file is a local edit and is broadcast to the room. Remote
// updates are written back to the file. The watcher notification caused by
// that write re-reads content the workspace already holds, so it produces no
// mutation and nothing is echoed.
package filesync
