// Package ui implements the Fyne desktop interface: a single-task download
// form with a live log panel, driven by the fetch service callbacks.
package ui
