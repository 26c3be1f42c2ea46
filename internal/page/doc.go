// Package page is the quiz page as seen by the rest of quizsolve.
//
// The interfaces Document, Block, Row and Control expose exactly what the
// extract and apply steps need: find the question blocks, read their text
// and controls, and decorate them. HTMLDocument implements them on a parsed
// HTML tree (goquery). Every mutation it performs is also appended to a
// MutationLog so that a live browser can replay the same changes.
package page
