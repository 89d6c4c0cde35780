// Package types defines the Repository and HistorySink interfaces, the
// reference-data entities, configuration, and the standard errors for the
// formulary storage system.
package types
