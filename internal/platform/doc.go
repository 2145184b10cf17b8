package platform

// Package platform contains OS integration helpers: default directories,
// directory creation, and opening downloaded files in the system file manager
// or default video player.
