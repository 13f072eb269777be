package rules

// DefaultTable returns the built-in table used when no rule file can be loaded.
func DefaultTable() *Table {
	return NewTable(
		[]Rule{
			{
				Name:     "greetings",
				Triggers: []string{"hello", "hi", "hey", "greetings", "good morning", "good afternoon"},
				Replies: []string{
					"Hello! I'm NeuraNest, your AI assistant. How can I help you today?",
					"Hi there! Welcome to NeuraNest. What would you like to explore?",
					"Greetings! I'm here to assist you with any questions or tasks.",
				},
			},
			{
				Name:     "capabilities",
				Triggers: []string{"what can you do", "capabilities", "help me with", "what are you"},
				Replies: []string{
					"I can help with a wide range of topics including programming, writing, analysis, and general questions.",
					"My capabilities include answering questions, helping with coding, creative writing, and problem-solving.",
					"I'm designed to assist with various tasks from technical questions to creative projects.",
				},
			},
			{
				Name:     "identity",
				Triggers: []string{"your name", "who are you"},
				Replies: []string{
					"I'm NeuraNest, your premium AI assistant designed to help with complex reasoning and conversations.",
				},
			},
			{
				Name:     "wellbeing",
				Triggers: []string{"how are you"},
				Replies:  []string{"I'm doing great, thanks for asking!"},
			},
			{
				Name:     "farewell",
				Triggers: []string{"bye"},
				Replies:  []string{"Goodbye! 👋 Have a nice day."},
			},
		},
		[]string{
			"That's an interesting question! Let me think about that...",
			"I understand you're asking about that topic. Could you provide more details?",
			"That's a great question! I'd be happy to help you explore that further.",
		},
	)
}
