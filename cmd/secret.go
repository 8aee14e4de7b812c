package cmd

// maskSecret keeps the first and last four characters of long values so the
// user can recognise what was copied without it being echoed in full.
// Anything shorter than 16 characters is hidden entirely.
func maskSecret(value string) string {
	runes := []rune(value)
	if len(runes) < 16 {
		return "***"
	}
	return string(runes[:4]) + "***" + string(runes[len(runes)-4:])
}
