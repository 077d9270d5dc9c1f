// Package database opens the embedded SQLite database behind a LiteDatabase
// handle, and provides connection strings, the document mapper, logging,
// query hooks, and the post-open patches applied before the handle is exposed.
package database
