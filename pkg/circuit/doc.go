// Package circuit is a small in-memory circuit database: libraries of cells
// whose nodes, arcs and exports carry names and string attributes.
//
// Libraries are built with NewLibrary/NewCell/AddElement and then handed to a
// Database, which owns them from that point on. Element IDs are stable for
// the life of a cell, so an ElementRef survives renames.
package circuit
