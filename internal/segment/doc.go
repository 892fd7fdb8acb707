// Package segment locates the item-icon band in a screenshot and carves it
// into fixed-width slots.
//
// The anchor row is found on a downsampled grayscale copy: every row in the
// vertical search range is scored by its horizontal edge energy over the icon
// window, weighted slightly toward the top of the image, and the strongest row
// wins. A fixed-height band placed just below the anchor is then split into
// equal columns, each inset and clamped to the image.
package segment
