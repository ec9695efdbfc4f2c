package validation

// CustomMessage returns hand-written messages for a field, keyed by
// validator tag. Fields are named by their json tag.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"email": {
			"required": "Please add an email",
			"email":    "Please add a valid email",
		},
		"password": {
			"required": "Please add a password",
			"min":      "Password must be at least 6 characters",
		},
		"newPassword": {
			"required": "Please add a new password",
			"min":      "New password must be at least 6 characters",
		},
		"name": {
			"required": "Please add a name",
			"max":      "Name can not be more than 50 characters",
		},
		"address": {
			"required": "Please add an address",
		},
		"title": {
			"required": "Please add a title for the review",
			"max":      "Title can not be more than 100 characters",
		},
		"description": {
			"required": "Please add a description",
			"max":      "Description can not be more than 500 characters",
		},
	}
	return customValidationMessages[field]
}
