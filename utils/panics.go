package utils

import "fmt"

func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("recovered from panic: %v", rv)
	}
}
