/*
Package streaming protects long audio responses from stalled clients.

The HTTP server runs with no WriteTimeout because a lossless album track can
take minutes to deliver to a slow player. [TimeoutWriter] restores a bound
per chunk instead: before each write of at most ChunkSize bytes it pushes
the connection write deadline WriteTimeout into the future through
[http.ResponseController]. A client that stops reading fails the next write
with [ErrWriteTimeout]. A cancelled request context ends the stream with
[ErrClientGone], and MaxDuration caps the whole response with [ErrMaxDuration].

TimeoutWriter is itself an http.ResponseWriter, so it can be handed straight
to [http.ServeContent] and range requests keep working:

	tw := streaming.NewTimeoutWriter(r.Context(), w, streaming.DefaultTimeoutWriterConfig())
	http.ServeContent(tw, r, info.Name(), info.ModTime(), f)
	if err := tw.Close(); err != nil {
		metrics.StreamAborts.WithLabelValues(streaming.AbortReason(err)).Inc()
	}

Writers wrapped around the connection by middleware must implement
Unwrap() http.ResponseWriter for deadlines to reach the connection. When
they cannot be reached (httptest recorders, for example) the writer logs
once at debug level and streams without deadlines.
*/
package streaming
