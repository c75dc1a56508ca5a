/*
Package filesystem opens and stats library files with retry logic for NFS
stale file handle errors (ESTALE).

Source roots are frequently network mounts. A stale handle during a long
index run would otherwise surface as a per-file failure, so reads made by the
prober, the tag extractor and the streaming handlers go through this package:

	f, err := filesystem.Open("/music/Album/01.flac")

Non-ESTALE errors are returned immediately. Retry metrics are labelled by
volume; register one volume per source at startup:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "source-0": "/music",
	    "database": "/var/lib/eleanor",
	}))
*/
package filesystem
