// Package audio probes audio files and exposes their default stream as a
// sequence of packets.
//
// Containers are detected by content sniffing with the file extension as a
// fallback, then decoded with beep. Packets are fixed-size blocks of decoded
// frames, so their bytes depend only on the audio payload and never on tag
// blocks or embedded pictures.
package audio
