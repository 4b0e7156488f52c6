/*
Package dump provides I/O operations for collected states of the contracts
executed on the host chain.

State collection (including storage) allows to inspect token ledgers offline
and to compare them across runs. The package works with dumps stored in the
file system using human-readable encoding.
*/
package dump
