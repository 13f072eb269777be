package chat

// Window returns the last k entries of history as turns, oldest first.
// The input is left untouched. A non-positive k yields no history.
func Window(history []RawTurn, k int) []Turn {
	if k <= 0 || len(history) == 0 {
		return []Turn{}
	}

	start := 0
	if len(history) > k {
		start = len(history) - k
	}

	turns := make([]Turn, 0, len(history)-start)
	for _, raw := range history[start:] {
		turns = append(turns, Turn{
			Role: RoleFor(raw.Sender),
			Text: raw.Text,
		})
	}
	return turns
}
