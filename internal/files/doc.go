// Package files provides the file system operations used by watch-folder
// ingestion.
//
// Discovery lists candidate spreadsheets in a directory, oldest first, so a
// backlog is processed in arrival order.
//
// Manager moves files between a base directory and its archive
// subdirectories. Moves never overwrite: a name that is already taken gets a
// numeric suffix.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/srv/inbox")
//	pending, err := discovery.FindFiles(".", validator.IsCandidate)
//
//	manager := files.NewManager("/srv/inbox")
//	dst, err := manager.Archive(pending[0].Path, "processed")
package files
