// Package statecol gathers load statuses from the rest of the group.
//
// The load-balancing module of every node answers a load query with its
// current SUPPLY/DEMAND/NORMAL status on the sc tag. The collector sends
// those queries on a fixed interval, keeps the latest answer per peer,
// and forwards answers to telemetry when configured.
package statecol
