// Package task models a unit of fulfillment work: one pending transition of
// one order, waiting in a role's queue until an agent claims it.
//
// Lifecycle:
//
//	Queued --Claim--> Claimed --Complete--> Completed
//	   ^                 |
//	   +--Release/Expire-+
//	Queued|Claimed --Withdraw--> Released
//
// A claim is a lease: it carries the claiming agent and an expiry time.
// Expired claims go back to Queued on the next sweep.
package task
