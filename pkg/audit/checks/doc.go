// Package checks contains the built-in audit checks. Each check registers
// itself with the audit registry at init time; importing this package (blank
// import is fine) makes the full set available to the analyzer.
package checks
