// Package engine defines the boundary to an OCR engine: a Worker created
// once per invocation, configured with engine parameters, asked to recognize
// images and, as the only cancellation primitive, terminated.
//
// The Tesseract implementation lives in engine/tesseract and needs cgo and
// libtesseract. Build with -tags=notesseract to link a stub instead.
package engine
