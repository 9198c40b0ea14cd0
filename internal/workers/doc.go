/*
Package workers sizes worker pools from GOMAXPROCS, which follows container
CPU limits, instead of runtime.NumCPU, which reports the host.

	// decoding textures for a contact sheet, at most 8 at a time
	n := workers.ForCPU(8)

Operators can pin the count with TEXDB_WORKERS; the limit still applies.
*/
package workers
