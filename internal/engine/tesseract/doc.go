// Package tesseract implements engine.Worker on top of gosseract, the cgo
// binding for libtesseract. Building with -tags=notesseract replaces it with
// a stub whose factory fails with engine.ErrNoEngine.
package tesseract
