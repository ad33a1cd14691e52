// Package gleaner turns a pasted YouTube or Naver blog URL into clean,
// copyable text: a caption transcript or an article body.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, http/, sqlite/).
package gleaner
