// Package expr builds and runs trees of child processes.
//
// An Expression describes one or more commands: how their standard streams
// are wired together, the environment and working directory they see, and
// which exit statuses count as failures. Expressions are immutable values,
// so a partially built pipeline can be shared, extended and run from
// several goroutines at once. Run, Read, Start and Handle.Wait turn an
// Expression into real processes and collect the result.
package expr
