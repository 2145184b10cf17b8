package model

// Package model defines the domain data structures that flow through the app:
// sniffed media candidates, download tasks, and status enums. Structures are
// designed for direct binding in the UI and explicit state transitions.
