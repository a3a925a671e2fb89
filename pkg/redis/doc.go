// Package redis provides connection helpers for the optional Redis-backed
// schema-resolution cache (tenant.RedisSchemaCache).
package redis
