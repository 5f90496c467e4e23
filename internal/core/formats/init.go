// Package formats registers all source formats with the core registry.
// Import this package to ensure all formats are registered.
package formats

// This file exists to provide a single import point.
// Each format file uses init() to register its format.
