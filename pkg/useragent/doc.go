// Package useragent classifies User-Agent strings into a coarse client
// summary: device type, operating system, browser and version, and whether
// the agent looks like a crawler or an automation tool.
//
// The summary is an enrichment hint for stored telemetry, not a security
// decision; agents are trivially spoofed.
package useragent
