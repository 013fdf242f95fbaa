// Package audit emits security-relevant events in RFC5424 syslog format.
//
// Every store, fetch and refused rotation is audited, successful or not.
// Events are written to stdout and, when AUDIT_DATABASE_URL is set,
// persisted to a PostgreSQL messages table.
package audit
