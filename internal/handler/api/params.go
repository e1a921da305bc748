package api

import "strconv"

func itoa(v int) string { return strconv.Itoa(v) }

func btoa(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func parseIntParam(s string) (int, error) { return strconv.Atoi(s) }
