// Package jembatan holds build metadata for the jembatan binary.
package jembatan

// Version is the released version of jembatan.
const Version = "0.1.0"
