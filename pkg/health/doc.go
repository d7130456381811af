// Package health tracks replica liveness for the frontend's replication
// coordinator: a Checker performs one probe and returns a Result, Status
// counts consecutive successes/failures and turns them into a single
// healthy/unhealthy verdict: unhealthy once the failures reach
// Config.Retries, healthy again after one success. With Retries set to 1, as
// the coordinator sets it, a single failed probe marks a replica unhealthy.
package health
