package vars

import (
	"os"
	"strings"
)

// ParseBool accepts the spellings used on command lines and in the environment.
func ParseBool(str string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "true", "t", "yes", "y", "on", "1":
		return true, true
	case "false", "f", "no", "n", "off", "0", "":
		return false, true
	}
	return false, false
}

func StrToBool(str string) bool {
	v, _ := ParseBool(str)
	return v
}

// EnvBool reports whether the environment variable is set to a true value.
func EnvBool(name string) bool {
	return StrToBool(os.Getenv(name))
}
