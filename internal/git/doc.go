// Package git reads revision information from the repository that encloses
// the documented library. Generated source links are pinned to that revision.
package git
