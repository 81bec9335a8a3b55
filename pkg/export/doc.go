// Package export turns persisted history into files for offline use:
// parquet tables for analysis tools and self contained HTML line charts.
package export
