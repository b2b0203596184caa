package constant

const (
	// DefaultChatTitle is the placeholder title for chats created without one.
	DefaultChatTitle = "New chat"

	// SeedTitleMaxLen caps the title derived from the first user message.
	SeedTitleMaxLen = 50

	// FailureNotice is persisted as an assistant turn when generation fails,
	// so the failure is still visible after a reload.
	FailureNotice = "An error occurred while generating a response. Please try again."

	// CancelNotice is appended (but not persisted) when the user stops
	// generation mid-flight.
	CancelNotice = "Generation stopped by user"
)
