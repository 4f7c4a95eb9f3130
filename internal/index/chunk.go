package index

// chunkText splits text into overlapping windows for embedding. Long page
// units get several vectors, all keyed to the same unit: chunking shapes the
// embedding input only, never the citation target. Windows are measured in
// runes so a multi-byte character is never split across chunks.
func chunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - overlap
	}
	return chunks
}
