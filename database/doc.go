// Package database provides the mapping core: field descriptors, the schema
// registry that generates SQL templates, a bounded FIFO connection pool, the
// query executor with placeholder translation, the transaction manager, query
// hooks, configuration and logging. Connections are managed through Bun on top
// of database/sql.
package database
