// Package hasher computes the content hash that identifies an audio file in
// the catalog: Adler-32 over the decoded packet payloads in order. Tags and
// container framing do not contribute, so a retagged or remuxed file keeps
// its identity.
package hasher
