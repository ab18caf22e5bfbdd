package model

// Chunk is a contiguous byte slice of a file's text content, the unit
// of question generation. Chunk boundaries and overlap are decided by
// the splitter; the reference records where in the file the text came
// from.
type Chunk struct {
	Text      string
	Reference *FileReference
}
