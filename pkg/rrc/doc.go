/*
Package rrc implements the recursive redundancy container: an envelope that
lets a byte stream be recovered after its file suffers byte corruption,
truncation of the tail, or local insertion and deletion of bytes.

# Layout

A container is written after the original input, outermost structures last:

	[input][L1 parity][L1 table][L1 trailer] ... [LN parity][LN table][LN trailer][anchor x 32]

Layer 1 protects the input with interleaved Reed-Solomon parity and describes
its protected region with a positioning table (one rolling hash and CRC per
chunk of BlockCount*DataSize bytes) and a trailer. The table and trailer of
layer i are the payload of layer i+1, so each layer shrinks to a small
metadata blob. When the blob is small enough it is written repeatedly as the
anchor, which needs no prior knowledge to decode.

# Decoding

Decoding runs from the end of the file inwards. The anchor is recovered by a
majority vote over its CRC-valid copies. For each layer the trailer gives the
code shape and region size, the positioning table is searched for with a
rolling hash so that blocks are placed by content rather than by offset, and
error correction repairs what is left. The corrected payload is either the
next layer's metadata or, for layer 1, the original input.

# Usage

	enc, err := rrc.NewEncoder(rrc.DefaultOptions())
	if err != nil {
		return err
	}
	report, err := enc.Encode(ctx, input, container)

	dec, err := rrc.NewDecoder(rrc.DefaultOptions())
	if err != nil {
		return err
	}
	report, err = dec.Decode(ctx, container, output)

Encoder and Decoder hold no per-call state and may be used concurrently on
different stores.
*/
package rrc
