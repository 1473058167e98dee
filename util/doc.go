// Package util holds small helpers shared across voxrelay packages.
package util
