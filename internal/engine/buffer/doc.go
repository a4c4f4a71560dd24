// Package buffer provides the text storage behind a document.
//
// A Buffer holds the whole text as a string with LF line endings and
// offers byte-offset editing, line/column conversion and search.
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//	buf.Insert(7, "Beautiful ")          // "Hello, Beautiful World!"
//	buf.Delete(0, 7)                     // "Beautiful World!"
//	start, end, ok := buf.Find("World", 0)
//
// Position Types:
//
//   - ByteOffset: Raw byte position in the buffer
//   - Point: Line and column position (0-indexed, column in bytes)
//
// All Buffer methods are safe for concurrent use.
package buffer
