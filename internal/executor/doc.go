// Package executor runs validated action plans. Actions execute
// concurrently when independent, in dependency order otherwise, with
// exponential backoff retries for transient failures. An action whose
// dependency failed is skipped without ever invoking its handler.
package executor
