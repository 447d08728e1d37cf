// Package cmd contains the Cobra commands for the mission-control
// binary: serving the dashboard, printing the version, and updating the
// binary in place.
package cmd
