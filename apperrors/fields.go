package apperrors

// FieldErrors collects validation messages per request field.
type FieldErrors map[string][]string

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Err returns nil when no field failed, otherwise an INVALID_REQUEST error
// whose context holds the messages.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	ctx := make(map[string]any, len(f))
	for field, msgs := range f {
		ctx[field] = msgs
	}
	return NewWithContext(ErrCodeInvalidRequest, "validation failed", ctx)
}
