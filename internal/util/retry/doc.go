// Package retry provides backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max attempts,
// initial delay, and maximum delay. It is used for cloud API calls and
// remote command dispatch that may fail transiently.
package retry
