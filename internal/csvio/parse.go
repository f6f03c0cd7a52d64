package csvio

import "strings"

// ParseLine splits one CSV line into fields. Double-quote delimited fields
// may contain commas and ""-escaped embedded quotes. Anything between a
// closing quote and the next comma is dropped.
func ParseLine(line string) []string {
	var result []string
	i := 0
	for i < len(line) {
		if line[i] == '"' {
			i++ // skip opening quote
			var sb strings.Builder
			inQuotes := true
			for i < len(line) && inQuotes {
				if line[i] == '"' {
					if i+1 < len(line) && line[i+1] == '"' {
						sb.WriteByte('"')
						i += 2
					} else {
						inQuotes = false
						i++
					}
				} else {
					sb.WriteByte(line[i])
					i++
				}
			}
			for i < len(line) && line[i] != ',' {
				i++
			}
			if i < len(line) && line[i] == ',' {
				i++
			}
			result = append(result, sb.String())
		} else {
			start := i
			for i < len(line) && line[i] != ',' {
				i++
			}
			result = append(result, line[start:i])
			if i < len(line) && line[i] == ',' {
				i++
			}
		}
	}
	return result
}

// EscapeField quotes a field if it contains a comma, quote or newline.
func EscapeField(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
