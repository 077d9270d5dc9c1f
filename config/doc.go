// Package config provides the key/value configuration sources consulted for
// connection strings. Keys are ':' separated paths such as
// "ConnectionStrings:LiteDatabase" and are matched case-insensitively.
package config
