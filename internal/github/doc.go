// Package github provides a minimal GitHub REST API client for posting tally
// reports as pull-request reviews.
//
// Issues that land on a line inside one of the PR's hunks are posted inline;
// the rest, including diff-local issues, are summarized in the review body.
package github
