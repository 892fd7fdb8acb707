// Package fingerprint computes the perceptual hashes used to compare item
// icons and scores fingerprint pairs by weighted Hamming distance.
//
// A Fingerprint holds three 64-bit hashes of one pixel region:
//
//   - aHash: 8×8 grayscale, bit set when the pixel is at or above the mean.
//   - dHash: 9×8 grayscale, bit set when a pixel is brighter than its right
//     neighbour.
//   - pHash: 32×32 grayscale reduced to 8×8 block amplitudes, bit set when the
//     amplitude is at or above the mean. This is an amplitude-threshold
//     variant, not a DCT hash, and is kept that way so stored fingerprints
//     stay comparable.
//
// All hashes are pure functions of pixel content; bits are packed row-major,
// most significant bit first.
package fingerprint
