package bot

// SplitMessage cuts text into pieces of at most size characters (runes),
// in order. Joining the pieces gives back text unchanged.
func SplitMessage(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}

	var chunks []string
	count := 0
	start := 0
	for i := range text {
		if count == size {
			chunks = append(chunks, text[start:i])
			start = i
			count = 0
		}
		count++
	}
	return append(chunks, text[start:])
}
