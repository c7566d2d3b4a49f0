// internal/app/system/limits/limits.go
package limits

// Request body size limits per endpoint family.
const (
	// MaxJSONBody covers ordinary JSON endpoints.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxChatBody allows an inline data-URI image with the message.
	MaxChatBody = 12 << 20 // 12 MB

	// MaxReplaceBody bounds a full message-list replace.
	MaxReplaceBody = 16 << 20 // 16 MB

	// MaxRecipients bounds one invite batch.
	MaxRecipients = 50

	// MaxMemoryFacts bounds a group's memory list.
	MaxMemoryFacts = 100
)
