// Package protocol implements the binary wire format used to mirror a
// document to remote viewers.
//
// A server streams the mutation records of its document as Mutations frames;
// a viewer replays them on its own copy with Apply. Viewers send Event frames
// back to dispatch events, such as click or transitionend, on nodes of the
// served document.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameMutations (0x01): Server → Client mutation batches
//   - FrameEvent (0x02): Client → Server events
//   - FrameError (0x03): Error message
//
// # Encoding
//
//   - Varint: Compact encoding for small integers (protobuf-style)
//   - Length-prefixed: Strings prefixed with their varint length
//   - Paths: varint depth followed by one varint child index per level,
//     starting at the body element
//
// A mutation batch larger than MaxPayloadSize is split across frames at
// record boundaries. Every frame but the last carries FlagContinued.
//
// # Usage Example
//
//	cancel := doc.Observe(func(records []dom.MutationRecord) {
//	    frames, err := protocol.EncodeMutations(&protocol.MutationsFrame{
//	        Seq:       seq.Add(1),
//	        Mutations: protocol.FromRecords(records),
//	    })
//	    ...
//	})
//
//	// Viewer side
//	mf, err := protocol.DecodeMutations(frame.Payload)
//	err = protocol.Apply(mirror, mf.Mutations)
package protocol
