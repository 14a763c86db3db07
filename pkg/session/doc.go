/*
Package session manages live orchestration runs.

A Manager keys runs by ID and guarantees that only one goroutine steps a
given run at a time, using a reference-counted in-process mutex and,
optionally, a distributed lock shared by several replicas. Runs that reach
FINAL are archived to a ports.ReportStore.
*/
package session
