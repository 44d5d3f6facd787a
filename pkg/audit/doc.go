// Package audit defines repository health checks and the analyzer that runs
// them against a scan snapshot. Checks are data-driven definitions registered
// at init time; the analyzer produces core.Finding values and an aggregate
// 0-100 health score consumed by the doctor command.
package audit
