// Package logger is a standardized event logging framework for process
// evaluations.
package logger
